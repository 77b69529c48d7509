package dwarf

// Tag identifies the kind of a Debug Information Entry (DW_TAG_*).
type Tag uint32

// DWARF 2-4 tags actually produced by the compilers this core targets
// (clang/gcc emitting C/C++ debug info). This is not the full DWARF tag
// space; tags outside this table simply decode as an opaque Tag value and
// are kept in the symbol graph unrecognized.
const (
	TagArrayType              Tag = 0x01
	TagClassType              Tag = 0x02
	TagEntryPoint             Tag = 0x03
	TagEnumerationType        Tag = 0x04
	TagFormalParameter        Tag = 0x05
	TagImportedDeclaration    Tag = 0x08
	TagLabel                  Tag = 0x0a
	TagLexicalBlock           Tag = 0x0b
	TagMember                 Tag = 0x0d
	TagPointerType            Tag = 0x0f
	TagReferenceType          Tag = 0x10
	TagCompileUnit            Tag = 0x11
	TagStringType             Tag = 0x12
	TagStructureType          Tag = 0x13
	TagSubroutineType         Tag = 0x15
	TagTypedef                Tag = 0x16
	TagUnionType              Tag = 0x17
	TagUnspecifiedParameters  Tag = 0x18
	TagVariant                Tag = 0x19
	TagInheritance            Tag = 0x1c
	TagInlinedSubroutine      Tag = 0x1d
	TagModule                 Tag = 0x1e
	TagPtrToMemberType        Tag = 0x1f
	TagSetType                Tag = 0x20
	TagSubrangeType           Tag = 0x21
	TagWithStmt               Tag = 0x22
	TagAccessDeclaration      Tag = 0x23
	TagBaseType               Tag = 0x24
	TagCatchBlock             Tag = 0x25
	TagConstType              Tag = 0x26
	TagConstant               Tag = 0x27
	TagEnumerator             Tag = 0x28
	TagFileType               Tag = 0x29
	TagFriend                 Tag = 0x2a
	TagNamelist               Tag = 0x2b
	TagNamelistItem           Tag = 0x2c
	TagPackedType             Tag = 0x2d
	TagSubprogram             Tag = 0x2e
	TagTemplateTypeParameter  Tag = 0x2f
	TagTemplateValueParameter Tag = 0x30
	TagThrownType             Tag = 0x31
	TagTryBlock               Tag = 0x32
	TagVariantPart            Tag = 0x33
	TagVariable               Tag = 0x34
	TagVolatileType           Tag = 0x35
	TagRestrictType           Tag = 0x37 // DWARF3
	TagNamespace              Tag = 0x39 // DWARF3
	TagUnspecifiedType        Tag = 0x3b // DWARF3
	TagRvalueReferenceType    Tag = 0x42 // DWARF4

	// TagVoid is not a real DWARF tag; it marks the synthetic void type
	// symbol every compilation unit's parser injects (spec.md §3 invariant
	// "synthetic void type is inserted as the first child of the CU
	// root").
	TagVoid Tag = 0
)

var tagNames = map[Tag]string{
	TagArrayType:              "array_type",
	TagClassType:              "class_type",
	TagEntryPoint:             "entry_point",
	TagEnumerationType:        "enumeration_type",
	TagFormalParameter:        "formal_parameter",
	TagImportedDeclaration:    "imported_declaration",
	TagLabel:                  "label",
	TagLexicalBlock:           "lexical_block",
	TagMember:                 "member",
	TagPointerType:            "pointer_type",
	TagReferenceType:          "reference_type",
	TagCompileUnit:            "compile_unit",
	TagStringType:             "string_type",
	TagStructureType:          "structure_type",
	TagSubroutineType:         "subroutine_type",
	TagTypedef:                "typedef",
	TagUnionType:              "union_type",
	TagUnspecifiedParameters:  "unspecified_parameters",
	TagVariant:                "variant",
	TagInheritance:            "inheritance",
	TagInlinedSubroutine:      "inlined_subroutine",
	TagModule:                 "module",
	TagPtrToMemberType:        "ptr_to_member_type",
	TagSetType:                "set_type",
	TagSubrangeType:           "subrange_type",
	TagWithStmt:               "with_stmt",
	TagAccessDeclaration:      "access_declaration",
	TagBaseType:               "base_type",
	TagCatchBlock:             "catch_block",
	TagConstType:              "const_type",
	TagConstant:               "constant",
	TagEnumerator:             "enumerator",
	TagFileType:               "file_type",
	TagFriend:                 "friend",
	TagNamelist:               "namelist",
	TagNamelistItem:           "namelist_item",
	TagPackedType:             "packed_type",
	TagSubprogram:             "subprogram",
	TagTemplateTypeParameter:  "template_type_parameter",
	TagTemplateValueParameter: "template_value_parameter",
	TagThrownType:             "thrown_type",
	TagTryBlock:               "try_block",
	TagVariantPart:            "variant_part",
	TagVariable:               "variable",
	TagVolatileType:           "volatile_type",
	TagRestrictType:           "restrict_type",
	TagNamespace:              "namespace",
	TagUnspecifiedType:        "unspecified_type",
	TagRvalueReferenceType:    "rvalue_reference_type",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return "DW_TAG_" + name
	}
	return "DW_TAG_unknown"
}
