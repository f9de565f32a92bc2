package config

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"go.uber.org/zap"
)

var (
	fileLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{8}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})\b`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `[-+]?(?:\d+\.\d+|\.\d+|\d+)`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_.-]*`},
		{Name: "Symbol", Pattern: `[=:]`},
	})

	fileParser = participle.MustBuild[File](
		participle.Lexer(fileLexer),
		participle.Elide("Whitespace", "LineComment", "HashComment"),
	)
)

// File 是配置文件的语法树：每行一个 key = value（或 key: value）。
type File struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Entries []*Entry       `parser:"Newline* ( @@ Newline* )*"`
}

// Entry 表示一条配置。
type Entry struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@Ident ( '=' | ':' )"`
	Value *Value         `parser:"@@"`
}

// Value 保存原始取值；类型转换由 FromMap 完成。
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Color  *string        `parser:"| @Color"`
	Ident  *string        `parser:"| @Ident"`
}

// Raw 返回值的字符串形式。
func (v *Value) Raw() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Color != nil:
		return *v.Color
	case v.Ident != nil:
		return *v.Ident
	default:
		return ""
	}
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse 解析配置文本，返回扁平键值表。重复的键以最后一次为准。
func Parse(r io.Reader) (map[string]any, error) {
	file, err := fileParser.Parse("", r)
	if err != nil {
		return nil, err
	}
	return file.Map(), nil
}

// ParseString parses configuration text from a string.
func ParseString(input string) (map[string]any, error) {
	file, err := fileParser.ParseString("", input)
	if err != nil {
		return nil, err
	}
	return file.Map(), nil
}

// Map flattens the entries into a key/value table.
func (f *File) Map() map[string]any {
	out := make(map[string]any, len(f.Entries))
	for _, e := range f.Entries {
		out[e.Key] = e.Value.Raw()
	}
	return out
}

// Load 读取并解析配置文件。
func Load(path string, logger *zap.Logger) (Options, error) {
	file, err := os.Open(path)
	if err != nil {
		return Options{}, fmt.Errorf("无法打开配置文件 %s: %w", path, err)
	}
	defer file.Close()

	m, err := Parse(file)
	if err != nil {
		return Options{}, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}
	return FromMap(m, logger), nil
}
