package dwarf

// Form identifies how an attribute's value is encoded (DW_FORM_*). The
// table covers the full DWARF 2-4 form set named in spec.md §4.2.
type Form uint32

const (
	FormAddr        Form = 0x01
	FormBlock2      Form = 0x03
	FormBlock4      Form = 0x04
	FormData2       Form = 0x05
	FormData4       Form = 0x06
	FormData8       Form = 0x07
	FormString      Form = 0x08
	FormBlock       Form = 0x09
	FormBlock1      Form = 0x0a
	FormData1       Form = 0x0b
	FormFlag        Form = 0x0c
	FormSdata       Form = 0x0d
	FormStrp        Form = 0x0e
	FormUdata       Form = 0x0f
	FormRefAddr     Form = 0x10
	FormRef1        Form = 0x11
	FormRef2        Form = 0x12
	FormRef4        Form = 0x13
	FormRef8        Form = 0x14
	FormRefUdata    Form = 0x15
	FormIndirect    Form = 0x16
	FormSecOffset   Form = 0x17 // DWARF4
	FormExprloc     Form = 0x18 // DWARF4
	FormFlagPresent Form = 0x19 // DWARF4
	FormRefSig8     Form = 0x20 // DWARF4
)

func (f Form) String() string {
	switch f {
	case FormAddr:
		return "DW_FORM_addr"
	case FormBlock2:
		return "DW_FORM_block2"
	case FormBlock4:
		return "DW_FORM_block4"
	case FormData2:
		return "DW_FORM_data2"
	case FormData4:
		return "DW_FORM_data4"
	case FormData8:
		return "DW_FORM_data8"
	case FormString:
		return "DW_FORM_string"
	case FormBlock:
		return "DW_FORM_block"
	case FormBlock1:
		return "DW_FORM_block1"
	case FormData1:
		return "DW_FORM_data1"
	case FormFlag:
		return "DW_FORM_flag"
	case FormSdata:
		return "DW_FORM_sdata"
	case FormStrp:
		return "DW_FORM_strp"
	case FormUdata:
		return "DW_FORM_udata"
	case FormRefAddr:
		return "DW_FORM_ref_addr"
	case FormRef1:
		return "DW_FORM_ref1"
	case FormRef2:
		return "DW_FORM_ref2"
	case FormRef4:
		return "DW_FORM_ref4"
	case FormRef8:
		return "DW_FORM_ref8"
	case FormRefUdata:
		return "DW_FORM_ref_udata"
	case FormIndirect:
		return "DW_FORM_indirect"
	case FormSecOffset:
		return "DW_FORM_sec_offset"
	case FormExprloc:
		return "DW_FORM_exprloc"
	case FormFlagPresent:
		return "DW_FORM_flag_present"
	case FormRefSig8:
		return "DW_FORM_ref_sig8"
	default:
		return "DW_FORM_unknown"
	}
}

// Attribute identifies a DIE attribute (DW_AT_*).
type Attribute uint32

const (
	AttrSibling       Attribute = 0x01
	AttrLocation      Attribute = 0x02
	AttrName          Attribute = 0x03
	AttrByteSize      Attribute = 0x0b
	AttrStmtList      Attribute = 0x10
	AttrLowpc         Attribute = 0x11
	AttrHighpc        Attribute = 0x12
	AttrLanguage      Attribute = 0x13
	AttrCompDir       Attribute = 0x1b
	AttrConstValue    Attribute = 0x1c
	AttrUpperBound    Attribute = 0x2f
	AttrProducer      Attribute = 0x25
	AttrPrototyped    Attribute = 0x27
	AttrCount         Attribute = 0x37
	AttrDataMemberLoc Attribute = 0x38
	AttrDeclFile      Attribute = 0x3a
	AttrDeclLine      Attribute = 0x3b
	AttrDeclaration   Attribute = 0x3c
	AttrEncoding      Attribute = 0x3e
	AttrExternal      Attribute = 0x3f
	AttrFrameBase     Attribute = 0x40
	AttrFriend        Attribute = 0x41
	AttrSpecification Attribute = 0x47
	AttrType          Attribute = 0x49
	AttrRanges        Attribute = 0x55
	AttrVirtuality    Attribute = 0x4c
	AttrLinkageName   Attribute = 0x6e // DWARF4
	AttrArtificial    Attribute = 0x34
)

func (a Attribute) String() string {
	switch a {
	case AttrSibling:
		return "DW_AT_sibling"
	case AttrLocation:
		return "DW_AT_location"
	case AttrName:
		return "DW_AT_name"
	case AttrByteSize:
		return "DW_AT_byte_size"
	case AttrStmtList:
		return "DW_AT_stmt_list"
	case AttrLowpc:
		return "DW_AT_low_pc"
	case AttrHighpc:
		return "DW_AT_high_pc"
	case AttrLanguage:
		return "DW_AT_language"
	case AttrCompDir:
		return "DW_AT_comp_dir"
	case AttrConstValue:
		return "DW_AT_const_value"
	case AttrUpperBound:
		return "DW_AT_upper_bound"
	case AttrProducer:
		return "DW_AT_producer"
	case AttrPrototyped:
		return "DW_AT_prototyped"
	case AttrCount:
		return "DW_AT_count"
	case AttrDataMemberLoc:
		return "DW_AT_data_member_location"
	case AttrDeclFile:
		return "DW_AT_decl_file"
	case AttrDeclLine:
		return "DW_AT_decl_line"
	case AttrDeclaration:
		return "DW_AT_declaration"
	case AttrEncoding:
		return "DW_AT_encoding"
	case AttrExternal:
		return "DW_AT_external"
	case AttrFrameBase:
		return "DW_AT_frame_base"
	case AttrFriend:
		return "DW_AT_friend"
	case AttrSpecification:
		return "DW_AT_specification"
	case AttrType:
		return "DW_AT_type"
	case AttrRanges:
		return "DW_AT_ranges"
	case AttrVirtuality:
		return "DW_AT_virtuality"
	case AttrLinkageName:
		return "DW_AT_linkage_name"
	case AttrArtificial:
		return "DW_AT_artificial"
	default:
		return "DW_AT_unknown"
	}
}

// VirtualityNone is DW_VIRTUALITY_none: the default value of DW_AT_virtuality
// when the attribute is absent. Any other value flags a virtual member
// function or base, which this core's FieldTypeAndOffset refuses to
// resolve (see provider.go and the Open Questions in SPEC_FULL.md).
const VirtualityNone = 0
