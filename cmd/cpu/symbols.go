package cpu

import (
	"debug/elf"
	"fmt"
	"os"
	"strings"

	dwarfcore "github.com/cucaracha-dbg/cucaracha/pkg/hw/cpu/dwarf"
	"github.com/cucaracha-dbg/cucaracha/pkg/hw/cpu/symbols"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	symColorOK      = color.New(color.FgGreen)
	symColorMissing = color.New(color.FgRed, color.Bold)
	symColorField   = color.New(color.FgHiGreen)
	symColorKind    = color.New(color.FgHiYellow)
	symColorAddr    = color.New(color.FgCyan)
)

var (
	symbolsImageBase uint64
	symbolsScript    string
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols [file] [query...]",
	Short: "Query DWARF debug information in an ELF file",
	Long: `Loads the DWARF sections of an ELF/object file and answers a single
type/field/line/locals query against them, or replays a batch of queries from
a YAML script (--script).

Query forms:
  type <name>                 - look up a type by name
  field <type> <field>        - resolve one struct/union/class member
  line <address>               - map an address to file:line
  locals <address> [args]      - list variables visible at an address;
                                  pass "args" to restrict to parameters

Examples:
  cucaracha cpu symbols program.o type Point
  cucaracha cpu symbols program.o field Point x
  cucaracha cpu symbols program.o line 0x1004
  cucaracha cpu symbols --script queries.yaml`,
	Args: cobra.ArbitraryArgs,
	Run:  runSymbols,
}

func init() {
	CpuCmd.AddCommand(symbolsCmd)
	symbolsCmd.Flags().Uint64Var(&symbolsImageBase, "image-base", 0, "Address the binary is loaded at; added once to every DW_AT_low_pc/high_pc value at parse time so queries can use live process addresses directly")
	symbolsCmd.Flags().StringVar(&symbolsScript, "script", "", "YAML file of canned queries to run non-interactively, instead of the positional file/query arguments")
}

// queryScript is the shape of a --script file: one binary plus a list of
// queries in the same text form as the positional CLI arguments, so a
// session can be replayed without retyping flags every time (mirrors
// dwarf.SessionConfig's YAML layering over DefaultSessionConfig).
type queryScript struct {
	BinaryPath       string   `yaml:"binary_path"`
	ImageBase        uint64   `yaml:"image_base"`
	FailFast         bool     `yaml:"fail_fast"`
	PreloadNameIndex bool     `yaml:"preload_name_index"`
	Queries          []string `yaml:"queries"`
}

func loadQueryScript(path string) (queryScript, error) {
	var script queryScript
	data, err := os.ReadFile(path)
	if err != nil {
		return script, fmt.Errorf("reading script %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &script); err != nil {
		return script, fmt.Errorf("parsing script %q: %w", path, err)
	}
	if script.BinaryPath == "" {
		return script, fmt.Errorf("script %q: binary_path is required", path)
	}
	return script, nil
}

func runSymbols(cmd *cobra.Command, args []string) {
	var binaryPath string
	var imageBase uint64
	var failFast bool
	var preload bool
	var queries [][]string

	if symbolsScript != "" {
		script, err := loadQueryScript(symbolsScript)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		binaryPath = script.BinaryPath
		imageBase = script.ImageBase
		failFast = script.FailFast
		preload = script.PreloadNameIndex
		for _, q := range script.Queries {
			queries = append(queries, strings.Fields(q))
		}
	} else {
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "Usage: cucaracha cpu symbols <file> <query...> (or --script <file>)")
			os.Exit(1)
		}
		binaryPath = args[0]
		imageBase = symbolsImageBase
		if len(args) > 1 {
			queries = [][]string{args[1:]}
		}
	}

	provider, session, err := openSymbolProvider(binaryPath, imageBase)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if failFast {
		for _, d := range session.Diagnostics.All() {
			fmt.Fprintf(os.Stderr, "fatal: %s\n", d.Message)
			os.Exit(3)
		}
	}
	if preload {
		provider.TypeNames()
	}

	if len(queries) == 0 {
		fmt.Fprintln(os.Stderr, "No queries given; nothing to do.")
		return
	}

	for _, q := range queries {
		runSymbolQuery(provider, q)
	}
}

// openSymbolProvider opens an ELF file and builds a DWARF session and
// symbol-provider façade over its debug sections, the same extraction
// NewDWARFParser does for the live debugger. imageBase is passed through to
// Session.Parse as an address normalizer, so DW_AT_low_pc/DW_AT_high_pc
// values already land in the same address space the caller queries in —
// callers then pass process addresses straight through to the provider,
// with no further adjustment (spec.md §3, §4.3).
func openSymbolProvider(path string, imageBase uint64) (*dwarfcore.Provider, *dwarfcore.Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %q: %w", path, err)
	}
	defer f.Close()

	elfFile, err := elf.NewFile(f)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing ELF file %q: %w", path, err)
	}

	sections := dwarfcore.Sections{
		Info:    sectionBytes(elfFile, ".debug_info"),
		Abbrev:  sectionBytes(elfFile, ".debug_abbrev"),
		Str:     sectionBytes(elfFile, ".debug_str"),
		Line:    sectionBytes(elfFile, ".debug_line"),
		Ranges:  sectionBytes(elfFile, ".debug_ranges"),
		Aranges: sectionBytes(elfFile, ".debug_aranges"),
	}
	if len(sections.Info) == 0 {
		return nil, nil, fmt.Errorf("%q has no .debug_info section", path)
	}

	session := dwarfcore.NewSession(sections, nil)
	normalize := dwarfcore.SessionConfig{ImageBase: imageBase}.Normalizer()
	if err := session.Parse(nil, normalize); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v (showing what parsed before the error)\n", err)
	}

	provider, err := dwarfcore.NewProvider(session)
	if err != nil {
		return nil, nil, fmt.Errorf("building symbol provider for %q: %w", path, err)
	}
	return provider, session, nil
}

func sectionBytes(f *elf.File, name string) []byte {
	sec := f.Section(name)
	if sec == nil {
		return nil
	}
	data, err := sec.Data()
	if err != nil {
		return nil
	}
	return data
}

func runSymbolQuery(provider *dwarfcore.Provider, query []string) {
	if len(query) == 0 {
		return
	}
	verb := strings.ToLower(query[0])
	args := query[1:]

	switch verb {
	case "type":
		queryType(provider, args)
	case "field":
		queryField(provider, args)
	case "line":
		queryLine(provider, args)
	case "locals":
		queryLocals(provider, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown query %q\n", verb)
	}
}

func queryType(provider *dwarfcore.Provider, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: type <name>")
		return
	}
	name := args[0]
	id, ok := provider.TypeID(name)
	if !ok {
		symColorMissing.Printf("type %s: not found\n", name)
		return
	}
	kind, _ := provider.TypeTag(id)
	size, hasSize := provider.TypeSize(id)
	if hasSize {
		symColorOK.Printf("type %s: id=%d kind=%s size=%d\n", name, id, symColorKind.Sprint(kind), size)
	} else {
		symColorOK.Printf("type %s: id=%d kind=%s\n", name, id, symColorKind.Sprint(kind))
	}
	if fields, ok := provider.FieldNames(id); ok {
		fmt.Printf("  fields: %s\n", strings.Join(fields, ", "))
	}
}

func queryField(provider *dwarfcore.Provider, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: field <type> <field>")
		return
	}
	typeName, fieldName := args[0], args[1]
	id, ok := provider.TypeID(typeName)
	if !ok {
		symColorMissing.Printf("type %s: not found\n", typeName)
		return
	}
	field, ok := provider.FieldTypeAndOffset(id, fieldName)
	if !ok {
		symColorMissing.Printf("%s.%s: not found\n", typeName, fieldName)
		return
	}
	fieldTypeName, _ := provider.TypeName(field.TypeID)
	symColorField.Printf("%s.%s: type=%s offset=%d\n", typeName, fieldName, fieldTypeName, field.ByteOffset)
}

// queryLine and queryLocals pass the same process address for both of
// Provider's processAddress/relativeAddress parameters: the symbol graph
// was already normalized into this address space once at parse time (via
// openSymbolProvider's --image-base normalizer), so there is nothing left
// for the query path to adjust.
func queryLine(provider *dwarfcore.Provider, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: line <address>")
		return
	}
	addr, err := parseAddress(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid address: %s\n", args[0])
		return
	}
	process := uint64(addr)
	file, line, disp := provider.SourceLineAt(process, process)
	if file == "" {
		symColorMissing.Printf("%s: no line info\n", symColorAddr.Sprintf("0x%08X", process))
		return
	}
	symColorOK.Printf("%s: %s:%d (+%d)\n", symColorAddr.Sprintf("0x%08X", process), file, line, disp)
}

func queryLocals(provider *dwarfcore.Provider, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: locals <address> [args]")
		return
	}
	addr, err := parseAddress(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid address: %s\n", args[0])
		return
	}
	argsOnly := len(args) > 1 && strings.EqualFold(args[1], "args")

	process := uint64(addr)
	name, disp := provider.FunctionAt(process, process)
	if name != "" {
		fmt.Printf("in %s (+%d):\n", name, disp)
	}

	locals := provider.FrameLocals(symbols.FrameDescriptor{}, process, argsOnly)
	if len(locals) == 0 {
		symColorMissing.Println("  no variables visible here")
		return
	}
	for _, l := range locals {
		typeName, _ := provider.TypeName(l.TypeID)
		fmt.Printf("  %s %s: %s\n", symColorField.Sprint(l.Name), symColorKind.Sprint(typeName), formatVarLocation(l.Location))
	}
}

func formatVarLocation(loc symbols.VarLocation) string {
	switch loc.Kind {
	case symbols.VarLocAddress:
		return symColorAddr.Sprintf("@0x%X", loc.Address)
	case symbols.VarLocRegister:
		return fmt.Sprintf("reg r%d", loc.Register)
	case symbols.VarLocConstant:
		return fmt.Sprintf("=%d", loc.Constant)
	default:
		return "?"
	}
}
