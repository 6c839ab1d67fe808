package traits

// Export is the visibility of a generated operation.
type Export uint8

const (
	// ExportNone means the operation is not generated.
	ExportNone Export = iota
	// ExportPrivate means the operation is generated for internal use.
	ExportPrivate
	// ExportPublic means the operation is part of the public API.
	ExportPublic
)

// String returns "none", "private" or "public".
func (e Export) String() string {
	switch e {
	case ExportPrivate:
		return "private"
	case ExportPublic:
		return "public"
	default:
		return "none"
	}
}

// Trait names an operation. The public traits match the derive names of the
// schema language; ParseInternal and ValidateInternal are helpers that only
// ever get ExportPrivate.
type Trait string

// Struct traits.
const (
	New              Trait = "New"
	Default          Trait = "Default"
	Parse            Trait = "Parse"
	ParseStream      Trait = "ParseStream"
	ParseBytes       Trait = "ParseBytes"
	ParseInternal    Trait = "ParseInternal"
	Validate         Trait = "Validate"
	ValidateStream   Trait = "ValidateStream"
	ValidateBytes    Trait = "ValidateBytes"
	ValidateInternal Trait = "ValidateInternal"
	Getters          Trait = "Getters"
	Setters          Trait = "Setters"
)

// Traits shared by enums and structs, and enum-only traits.
const (
	ToString    Trait = "ToString"
	FromString  Trait = "FromString"
	ToBitString Trait = "ToBitString"
)

// StructTraits lists the struct-level traits in emission order.
var StructTraits = []Trait{
	New, Default,
	ParseInternal, Parse, ParseBytes, ParseStream,
	ValidateInternal, Validate, ValidateBytes, ValidateStream,
	ToString,
}

// EnumTraits lists the enum traits in emission order.
var EnumTraits = []Trait{ToString, FromString, ToBitString}

// exports records the level of each trait of one type.
type exports map[Trait]Export

func (x exports) get(t Trait) Export {
	return x[t]
}

// raise sets t to level unless it is already at least that. It reports
// whether the level changed.
func (x exports) raise(t Trait, level Export) bool {
	if x[t] >= level {
		return false
	}
	x[t] = level
	return true
}
