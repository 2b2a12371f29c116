package symstore

// referencedTypeIDs returns every symbol id that sym has registered
// itself as a dependent of (spec 3: "every symbol that names another...
// has registered itself as a dependent of the named symbol"). Used when
// deleting sym to unwire exactly the edges it holds.
func referencedTypeIDs(sym Symbol) []uint32 {
	switch v := sym.(type) {
	case *PointerSymbol:
		return []uint32{v.TargetID}
	case *ArraySymbol:
		return []uint32{v.ElementTypeID}
	case *TypedefSymbol:
		return []uint32{v.AliasOfID}
	case *EnumSymbol:
		return []uint32{v.UnderlyingID}
	case *FunctionTypeSymbol:
		out := append([]uint32{}, v.ParamTypeIDs...)
		if v.ReturnTypeID != NoSymbol {
			out = append(out, v.ReturnTypeID)
		}

		return out
	case *FieldSymbol:
		if v.TypeID == NoSymbol {
			return nil
		}

		return []uint32{v.TypeID}
	case *BaseClassSymbol:
		return []uint32{v.TypeID}
	case *DataSymbol:
		return []uint32{v.TypeID}
	case *ParameterSymbol:
		return []uint32{v.TypeID}
	case *LocalSymbol:
		return []uint32{v.TypeID}
	default:
		return nil
	}
}
