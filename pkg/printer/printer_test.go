package printer_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mekkanik/cslicer/pkg/frontend"
	"github.com/mekkanik/cslicer/pkg/printer"
)

func render(t *testing.T, source string) string {
	t.Helper()
	prog, err := frontend.Parse([]byte(source), "test.c")
	require.NoError(t, err)
	return printer.Print(prog)
}

func TestPrintRoundTripsSimpleFunction(t *testing.T) {
	source := "int add(int a, int b) {\n" +
		"    return a + b;\n" +
		"}\n"
	if diff := cmp.Diff(source, render(t, source)); diff != "" {
		t.Errorf("rendered source mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintEmptyParameterList(t *testing.T) {
	source := "int main() {\n" +
		"    return 0;\n" +
		"}\n"
	want := "int main(void) {\n" +
		"    return 0;\n" +
		"}\n"
	if diff := cmp.Diff(want, render(t, source)); diff != "" {
		t.Errorf("rendered source mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintIfElseAndWhile(t *testing.T) {
	source := "int f(int x) {\n" +
		"    if (x > 0) {\n" +
		"        x = x - 1;\n" +
		"    } else {\n" +
		"        x = 0;\n" +
		"    }\n" +
		"    while (x < 10) {\n" +
		"        x = x + 1;\n" +
		"    }\n" +
		"    return x;\n" +
		"}\n"
	if diff := cmp.Diff(source, render(t, source)); diff != "" {
		t.Errorf("rendered source mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintForLoop(t *testing.T) {
	source := "int sum(int n) {\n" +
		"    int s;\n" +
		"    int i;\n" +
		"    s = 0;\n" +
		"    for (i = 0; i < n; i = i + 1) {\n" +
		"        s = s + i;\n" +
		"    }\n" +
		"    return s;\n" +
		"}\n"
	if diff := cmp.Diff(source, render(t, source)); diff != "" {
		t.Errorf("rendered source mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintParenthesizesNestedBinaries(t *testing.T) {
	source := "int f(int a, int b, int c) {\n" +
		"    int x = a + b * c;\n" +
		"    int y = a + b + c;\n" +
		"    return x + y;\n" +
		"}\n"
	got := render(t, source)
	assert.Contains(t, got, "int x = a + (b * c);")
	assert.Contains(t, got, "int y = (a + b) + c;")
}

func TestPrintPointerAndAddressOf(t *testing.T) {
	source := "int main() {\n" +
		"    int a = 1;\n" +
		"    int* p = &a;\n" +
		"    *p = 5;\n" +
		"    return a;\n" +
		"}\n"
	got := render(t, source)
	assert.Contains(t, got, "int* p = &a;")
	assert.Contains(t, got, "*p = 5;")
}

func TestPrintCallsAndBareReturn(t *testing.T) {
	source := "void report(int v) {\n" +
		"    write(v, 2);\n" +
		"    return;\n" +
		"}\n"
	if diff := cmp.Diff(source, render(t, source)); diff != "" {
		t.Errorf("rendered source mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintFunctionRendersOneFunction(t *testing.T) {
	source := "int one() {\n" +
		"    return 1;\n" +
		"}\n" +
		"\n" +
		"int two() {\n" +
		"    return 2;\n" +
		"}\n"
	prog, err := frontend.Parse([]byte(source), "test.c")
	require.NoError(t, err)

	fn := prog.FunctionByName("two")
	got := printer.PrintFunction(prog, fn)
	assert.Contains(t, got, "int two(void) {")
	assert.NotContains(t, got, "one")
}

func TestPrintSeparatesFunctionsWithBlankLine(t *testing.T) {
	source := "int one() {\n" +
		"    return 1;\n" +
		"}\n" +
		"\n" +
		"int two() {\n" +
		"    return 2;\n" +
		"}\n"
	want := "int one(void) {\n" +
		"    return 1;\n" +
		"}\n" +
		"\n" +
		"int two(void) {\n" +
		"    return 2;\n" +
		"}\n"
	if diff := cmp.Diff(want, render(t, source)); diff != "" {
		t.Errorf("rendered source mismatch (-want +got):\n%s", diff)
	}
}
