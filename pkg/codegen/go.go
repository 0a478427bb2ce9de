package codegen

import (
	"bytes"
	"fmt"
	"strconv"
)

// GoEmitter emits a counterexample as a Go regression test. The test
// fails while the transformation is not idempotent on the input, and
// starts passing once the bug is fixed.
type GoEmitter struct {
	opts Options
}

// NewGoEmitter creates a new Go test emitter.
func NewGoEmitter(opts Options) *GoEmitter {
	return &GoEmitter{opts: opts}
}

// Emit produces the Go test source.
func (g *GoEmitter) Emit(r Repro) (string, error) {
	if err := r.validate(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.WriteString("package repro\n\n")
	if r.Transformation != "" {
		g.writeBuiltinTest(&buf, r)
	} else {
		g.writeCommandTest(&buf, r)
	}
	return buf.String(), nil
}

func (g *GoEmitter) writeHeader(buf *bytes.Buffer, r Repro) {
	fmt.Fprintf(buf, "// Reproduction for %q.\n", r.name())
	if r.State != "" {
		fmt.Fprintf(buf, "// Generator state: %s.\n", r.State)
	}
	fmt.Fprintf(buf, "// Observed: %s -> %s -> %s.\n",
		strconv.Quote(r.Input), strconv.Quote(r.Output1), strconv.Quote(r.Output2))
	buf.WriteString("// This test fails while the transformation is not idempotent on the input.\n")
}

func (g *GoEmitter) writeBuiltinTest(buf *bytes.Buffer, r Repro) {
	buf.WriteString("import (\n")
	buf.WriteString("\t\"context\"\n")
	buf.WriteString("\t\"testing\"\n\n")
	buf.WriteString("\t\"github.com/fixpoint-sh/fixpoint/pkg/transform\"\n")
	buf.WriteString(")\n\n")

	g.writeHeader(buf, r)
	fmt.Fprintf(buf, "func Test%sIdempotent(t *testing.T) {\n", exportedName(r.Transformation))
	fmt.Fprintf(buf, "\ttr, err := transform.Builtin(%s)\n", strconv.Quote(r.Transformation))
	buf.WriteString("\tif err != nil {\n")
	buf.WriteString("\t\tt.Fatal(err)\n")
	buf.WriteString("\t}\n\n")
	fmt.Fprintf(buf, "\tinput := %s\n", strconv.Quote(r.Input))
	buf.WriteString("\tonce, err := tr.Apply(context.Background(), input)\n")
	buf.WriteString("\tif err != nil {\n")
	buf.WriteString("\t\tt.Fatal(err)\n")
	buf.WriteString("\t}\n")
	buf.WriteString("\ttwice, err := tr.Apply(context.Background(), once)\n")
	buf.WriteString("\tif err != nil {\n")
	buf.WriteString("\t\tt.Fatal(err)\n")
	buf.WriteString("\t}\n\n")
	buf.WriteString("\tif once != twice {\n")
	buf.WriteString("\t\tt.Fatalf(\"not idempotent: %q -> %q -> %q\", input, once, twice)\n")
	buf.WriteString("\t}\n")
	buf.WriteString("}\n")
}

func (g *GoEmitter) writeCommandTest(buf *bytes.Buffer, r Repro) {
	buf.WriteString("import (\n")
	buf.WriteString("\t\"os/exec\"\n")
	buf.WriteString("\t\"strings\"\n")
	buf.WriteString("\t\"testing\"\n")
	buf.WriteString(")\n\n")

	g.writeHeader(buf, r)
	buf.WriteString("func TestCommandIdempotent(t *testing.T) {\n")
	buf.WriteString("\tapply := func(in string) string {\n")
	buf.WriteString("\t\tt.Helper()\n")
	fmt.Fprintf(buf, "\t\tcmd := exec.Command(%s)\n", goArgList(r.Command))
	buf.WriteString("\t\tcmd.Stdin = strings.NewReader(in)\n")
	buf.WriteString("\t\tout, err := cmd.Output()\n")
	buf.WriteString("\t\tif err != nil {\n")
	buf.WriteString("\t\t\tt.Fatal(err)\n")
	buf.WriteString("\t\t}\n")
	buf.WriteString("\t\treturn strings.TrimSuffix(string(out), \"\\n\")\n")
	buf.WriteString("\t}\n\n")
	fmt.Fprintf(buf, "\tinput := %s\n", strconv.Quote(r.Input))
	buf.WriteString("\tonce := apply(input)\n")
	buf.WriteString("\ttwice := apply(once)\n")
	buf.WriteString("\tif once != twice {\n")
	buf.WriteString("\t\tt.Fatalf(\"not idempotent: %q -> %q -> %q\", input, once, twice)\n")
	buf.WriteString("\t}\n")
	buf.WriteString("}\n")
}

// goArgList renders command argv as a Go argument list.
func goArgList(argv []string) string {
	var buf bytes.Buffer
	for i, arg := range argv {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(strconv.Quote(arg))
	}
	return buf.String()
}
