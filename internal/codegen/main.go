// Command codegen writes the DeriveN source constructors.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

func generateDerive(n int) string {
	var sb strings.Builder

	typeParams := []string{"T any"}
	for i := 1; i <= n; i++ {
		typeParams = append(typeParams, fmt.Sprintf("D%d any", i))
	}

	factoryParams := []string{"context.Context"}
	for i := 1; i <= n; i++ {
		factoryParams = append(factoryParams, fmt.Sprintf("D%d", i))
	}

	values := []string{"ctx"}
	commits := []string{}
	for i := 1; i <= n; i++ {
		values = append(values, fmt.Sprintf("v%d", i))
		commits = append(commits, fmt.Sprintf("c%d", i))
	}

	noun := "sources"
	if n == 1 {
		noun = "source"
	}

	sb.WriteString(fmt.Sprintf("// Derive%d builds a source from the value of %d other %s. Dependency\n", n, n, noun))
	sb.WriteString("// values are published ahead of the derived one.\n")
	sb.WriteString(fmt.Sprintf("func Derive%d[%s](\n", n, strings.Join(typeParams, ", ")))
	for i := 1; i <= n; i++ {
		sb.WriteString(fmt.Sprintf("\td%d *Source[D%d],\n", i, i))
	}
	sb.WriteString(fmt.Sprintf("\tfactory func(%s) (T, error),\n", strings.Join(factoryParams, ", ")))
	sb.WriteString("\topts ...SourceOption,\n")
	sb.WriteString(") *Source[T] {\n")
	sb.WriteString("\treturn newSource(func(ctx context.Context) (T, commit, error) {\n")
	sb.WriteString("\t\tvar zero T\n")
	for i := 1; i <= n; i++ {
		sb.WriteString(fmt.Sprintf("\t\tv%d, c%d, err := d%d.prepare(ctx)\n", i, i, i))
		sb.WriteString("\t\tif err != nil {\n")
		sb.WriteString("\t\t\treturn zero, nil, err\n")
		sb.WriteString("\t\t}\n")
	}
	sb.WriteString(fmt.Sprintf("\t\tv, err := factory(%s)\n", strings.Join(values, ", ")))
	sb.WriteString(fmt.Sprintf("\t\treturn v, chain(%s), err\n", strings.Join(commits, ", ")))
	sb.WriteString("\t}, opts...)\n")
	sb.WriteString("}\n")

	return sb.String()
}

func generate(max int) string {
	var output strings.Builder

	output.WriteString("// Code generated by internal/codegen; DO NOT EDIT.\n\n")
	output.WriteString("package dataflow\n\n")
	output.WriteString("import \"context\"\n")

	for i := 1; i <= max; i++ {
		output.WriteString("\n")
		output.WriteString(generateDerive(i))
	}

	return output.String()
}

func main() {
	out := flag.String("out", "", "file to write; stdout when empty")
	max := flag.Int("n", 3, "highest arity to generate")
	flag.Parse()

	code := generate(*max)
	if *out == "" {
		fmt.Print(code)
		return
	}

	if err := os.WriteFile(*out, []byte(code), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println("Generated", *out)
}
