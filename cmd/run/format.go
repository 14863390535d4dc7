package main

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/wasm-tojs/decode"
	"github.com/wippyai/wasm-tojs/runtime"
)

// renderText formats a decoded result on one line.
func renderText(v any) string {
	var b strings.Builder
	writeText(&b, v)
	return b.String()
}

func writeText(b *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		b.WriteString("none")
	case string:
		fmt.Fprintf(b, "%q", x)
	case []byte:
		b.WriteString("0x")
		b.WriteString(hex.EncodeToString(x))
	case decode.Typed:
		writeText(b, x.Value)
		b.WriteString(" (")
		b.WriteString(x.Descriptor.String())
		b.WriteByte(')')
	case decode.Object:
		b.WriteByte('{')
		for i, f := range x {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Key)
			b.WriteString(": ")
			writeText(b, f.Value)
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				b.WriteString(", ")
			}
			writeText(b, e)
		}
		b.WriteByte(']')
	default:
		fmt.Fprintf(b, "%v", x)
	}
}

// renderYAML formats a decoded result as a YAML document. Object keys keep
// their guest order.
func renderYAML(v any) (string, error) {
	out, err := yaml.Marshal(yamlNode(v))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func yamlNode(v any) *yaml.Node {
	switch x := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case decode.Typed:
		return &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
			scalar("type"), scalar(x.Descriptor.String()),
			scalar("value"), yamlNode(x.Value),
		}}
	case decode.Object:
		n := &yaml.Node{Kind: yaml.MappingNode}
		for _, f := range x {
			n.Content = append(n.Content, scalar(f.Key), yamlNode(f.Value))
		}
		return n
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, e := range x {
			n.Content = append(n.Content, yamlNode(e))
		}
		return n
	case []byte:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!binary", Value: base64.StdEncoding.EncodeToString(x)}
	}
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return scalar(fmt.Sprint(v))
	}
	return &n
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// writeListing prints one export per line in aligned columns. Lines are
// cut to width when width is positive.
func writeListing(w io.Writer, fns []runtime.FunctionInfo, declared func(string) string, width int) {
	rows := make([][3]string, 0, len(fns))
	var nameW, sigW int
	for _, fn := range fns {
		result := "(no descriptor)"
		if fn.Described {
			result = fn.Descriptor.String()
		}
		if d := declared(fn.Name); d != "" {
			result += "  wit: " + d
		}
		row := [3]string{fn.Name, "(" + strings.Join(fn.Params, ", ") + ")", result}
		nameW = max(nameW, runewidth.StringWidth(row[0]))
		sigW = max(sigW, runewidth.StringWidth(row[1]))
		rows = append(rows, row)
	}
	for _, row := range rows {
		line := runewidth.FillRight(row[0], nameW) + "  " + runewidth.FillRight(row[1], sigW) + "  -> " + row[2]
		if width > 0 {
			line = runewidth.Truncate(line, width, "…")
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}
