package cpu

import (
	"fmt"
	"os"

	"github.com/cucaracha-dbg/cucaracha/pkg/hw/cpu/debugger"
	dwarfcore "github.com/cucaracha-dbg/cucaracha/pkg/hw/cpu/dwarf"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"
)

var symbolBrowserCmd = &cobra.Command{
	Use:   "symbolbrowser <file>",
	Short: "Browse DWARF types interactively in a terminal UI",
	Long: `Opens a read-only terminal UI over the DWARF debug information of an
ELF/object file: a tree of every named type on the left, and its kind, size
and fields on the right.

Navigate with the arrow keys or j/k, select a type with Enter, and quit with
q or Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	Run:  runSymbolBrowser,
}

func init() {
	CpuCmd.AddCommand(symbolBrowserCmd)
}

func runSymbolBrowser(cmd *cobra.Command, args []string) {
	provider, _, err := openSymbolProvider(args[0], 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	app := tview.NewApplication()

	details := tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true)
	details.SetBorder(true).SetTitle(" Details ")

	root := tview.NewTreeNode("Types").SetColor(tcell.ColorYellow)
	tree := tview.NewTreeView().SetRoot(root).SetCurrentNode(root)
	tree.SetBorder(true).SetTitle(fmt.Sprintf(" %s ", args[0]))

	for _, name := range provider.TypeNames() {
		node := tview.NewTreeNode(name).SetReference(name).SetSelectable(true)
		root.AddChild(node)
	}

	showTypeDetails(details, provider, "")

	tree.SetSelectedFunc(func(node *tview.TreeNode) {
		name, ok := node.GetReference().(string)
		if !ok {
			return
		}
		showTypeDetails(details, provider, name)
	})

	flex := tview.NewFlex().
		AddItem(tree, 0, 1, true).
		AddItem(details, 0, 2, false)

	// Mirrors the live debugger frontend's ResizeHandler contract
	// (pkg/hw/cpu/debugger.ResizeHandler) even though this read-only
	// browser has nothing stateful to resize beyond tview's own relayout.
	var onResize debugger.ResizeHandler = func(size debugger.TerminalSize) {
		details.SetTitle(fmt.Sprintf(" Details (%dx%d) ", size.Width, size.Height))
	}
	app.SetAfterResizeFunc(func(width, height int) {
		onResize(debugger.TerminalSize{Width: width, Height: height})
	})

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyCtrlC:
			app.Stop()
			return nil
		case event.Rune() == 'q':
			app.Stop()
			return nil
		}
		return event
	})

	if err := app.SetRoot(flex, true).SetFocus(tree).Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

func showTypeDetails(details *tview.TextView, provider *dwarfcore.Provider, name string) {
	details.Clear()
	if name == "" {
		fmt.Fprint(details, "Select a type on the left to inspect it.")
		return
	}

	id, ok := provider.TypeID(name)
	if !ok {
		fmt.Fprintf(details, "[red]%s: not found[-]", name)
		return
	}

	kind, _ := provider.TypeTag(id)
	fmt.Fprintf(details, "[yellow]%s[-]  (%s)\n", name, kind)

	if size, ok := provider.TypeSize(id); ok {
		fmt.Fprintf(details, "size: %d bytes\n", size)
	}
	if elem, ok := provider.ElementType(id); ok {
		elemName, _ := provider.TypeName(elem)
		fmt.Fprintf(details, "element type: %s\n", elemName)
	}

	fields, ok := provider.FieldNames(id)
	if !ok || len(fields) == 0 {
		return
	}

	fmt.Fprintln(details, "\n[green]fields:[-]")
	for _, field := range fields {
		info, ok := provider.FieldTypeAndOffset(id, field)
		if !ok {
			continue
		}
		fieldType, _ := provider.TypeName(info.TypeID)
		fmt.Fprintf(details, "  %-20s %-16s offset=%d\n", field, fieldType, info.ByteOffset)
	}
}
