package repl

import (
	"reflect"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/plain-mark/markdown2app/lang"
)

// builtinParams names the parameters of the expr builtins that remain
// callable from a block.
var builtinParams = map[string][]string{
	"len":           {"v"},
	"all":           {"array", "predicate"},
	"any":           {"array", "predicate"},
	"one":           {"array", "predicate"},
	"none":          {"array", "predicate"},
	"map":           {"array", "mapper"},
	"filter":        {"array", "predicate"},
	"find":          {"array", "predicate"},
	"findIndex":     {"array", "predicate"},
	"findLast":      {"array", "predicate"},
	"findLastIndex": {"array", "predicate"},
	"groupBy":       {"array", "mapper"},
	"sortBy":        {"array", "mapper"},
	"count":         {"array", "predicate"},
	"sum":           {"array"},
	"mean":          {"array"},
	"median":        {"array"},
	"min":           {"array"},
	"max":           {"array"},
	"join":          {"array", "separator"},
	"split":         {"string", "separator"},
	"replace":       {"string", "old", "new"},
	"trim":          {"string"},
	"trimLeft":      {"string"},
	"trimRight":     {"string"},
	"upper":         {"string"},
	"lower":         {"string"},
	"int":           {"v"},
	"float":         {"v"},
	"string":        {"v"},
	"type":          {"v"},
}

// functionCall represents a detected function call in the input.
type functionCall struct {
	name     string // fully qualified function name (e.g., "os.join")
	argIndex int    // current argument index (0-based)
	inCall   bool   // true if cursor is inside parameter list
}

// detectFunctionCall analyzes the input to determine if the cursor is inside
// a function call's parameter list. Brackets and commas inside string
// literals are ignored. Keywords followed by a parenthesis, such as "if (",
// are not calls.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(cursor, len(input))

	type frame struct {
		pos   int
		args  int
		paren bool
	}

	var (
		stack []frame
		quote byte
	)

	// Delimiters are ASCII, so scanning bytes never splits a rune.
	for i := 0; i < cursor; i++ {
		c := input[i]

		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}

			continue
		}

		switch c {
		case '"', '\'', '`':
			quote = c
		case '(', '[', '{':
			stack = append(stack, frame{pos: i, paren: c == '('})
		case ')', ']', '}':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case ',':
			if len(stack) > 0 {
				stack[len(stack)-1].args++
			}
		}
	}

	if len(stack) == 0 || !stack[len(stack)-1].paren {
		return functionCall{}
	}

	top := stack[len(stack)-1]

	name := callee(input[:top.pos])
	if name == "" || slices.Contains(lang.Keywords(), name) {
		return functionCall{}
	}

	return functionCall{name: name, argIndex: top.args, inCall: true}
}

// callee returns the dotted identifier chain ending prefix.
func callee(prefix string) string {
	prefix = strings.TrimRight(prefix, " \t")
	start := len(prefix)

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:start])
		if r != '.' && r != '_' && r != '$' &&
			!unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}

		start -= size
	}

	return strings.Trim(prefix[start:], ".")
}

// capabilitySignatures names the parameters of the capability functions,
// which reflection alone reports only by type.
var capabilitySignatures = map[string][]string{
	"print":          {"...values"},
	"error":          {"...values"},
	"input":          {"prompt"},
	"open":           {"path", "mode"},
	"exec":           {"command"},
	"console.log":    {"...values"},
	"console.info":   {"...values"},
	"console.debug":  {"...values"},
	"console.warn":   {"...values"},
	"console.error":  {"...values"},
	"json.stringify": {"value", "indent"},
	"json.dumps":     {"value", "indent"},
	"json.parse":     {"text"},
	"json.loads":     {"text"},
	"os.getenv":      {"key"},
	"os.setenv":      {"key", "value"},
	"os.exists":      {"path"},
	"os.isDir":       {"path"},
	"os.isRegular":   {"path"},
	"os.isSymlink":   {"path"},
	"os.listdir":     {"path"},
	"os.abs":         {"path"},
	"os.join":        {"...elem"},
	"os.rel":         {"from", "to"},
	"os.pathPrefix":  {"list", "...items"},
}

// getSignature retrieves the signature of the named function. User functions
// and capabilities take precedence over expr builtins. Returns an empty
// signature if the name does not resolve to a function.
func getSignature(
	in *lang.Interpreter,
	funcName string,
) (signature string, params []string) {
	if v, ok := in.Lookup(funcName); ok {
		if fn, ok := v.(*lang.Function); ok {
			return formatSignature(funcName, fn.Params), fn.Params
		}

		if params, ok := capabilitySignatures[funcName]; ok {
			return formatSignature(funcName, params), params
		}

		if sig, params, ok := reflectSignature(funcName, v); ok {
			return sig, params
		}
	}

	if params, ok := builtinParams[funcName]; ok {
		return formatSignature(funcName, params), params
	}

	return "", nil
}

// reflectSignature derives a signature from the parameter types of a Go
// function value.
func reflectSignature(funcName string, fn any) (string, []string, bool) {
	t := reflect.TypeOf(fn)
	if t == nil || t.Kind() != reflect.Func {
		return "", nil, false
	}

	numParams := t.NumIn()
	isVariadic := t.IsVariadic()
	params := make([]string, 0, numParams)

	for i := range numParams {
		paramType := t.In(i)

		if isVariadic && i == numParams-1 {
			params = append(params, "..."+formatTypeName(paramType.Elem()))
		} else {
			params = append(params, formatTypeName(paramType))
		}
	}

	return formatSignature(funcName, params), params, true
}

// formatTypeName converts a reflect.Type to a readable parameter name.
// Examples: "string", "int", "bool", "func", "value".
func formatTypeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Func:
		return "func"
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64:
		return "uint"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Bool:
		return "bool"
	case reflect.Slice:
		return "slice"
	case reflect.Map:
		return "map"
	case reflect.Pointer:
		return formatTypeName(t.Elem())
	case reflect.Interface:
		return "value"
	default:
		// Fallback to the type's name if available
		if t.Name() != "" {
			return t.Name()
		}

		return "arg"
	}
}

// formatSignature formats a function signature with parameter names.
func formatSignature(name string, params []string) string {
	return name + "(" + strings.Join(params, ", ") + ")"
}

// renderSignatureHint styles signature for display below the prompt,
// emphasizing the parameter at argument index arg. A variadic parameter
// stays emphasized for every argument it absorbs.
func renderSignatureHint(signature string, params []string, arg int) string {
	if signature == "" {
		return ""
	}

	name, _, ok := strings.Cut(signature, "(")
	if !ok {
		return hintStyle.Render(signature)
	}

	parts := make([]string, len(params))

	for i, param := range params {
		current := i == arg ||
			(i < arg && strings.HasPrefix(param, "..."))
		if current {
			parts[i] = hintParamStyle.Render(param)
		} else {
			parts[i] = hintStyle.Render(param)
		}
	}

	return hintNameStyle.Render(name) +
		hintStyle.Render("(") +
		strings.Join(parts, hintStyle.Render(", ")) +
		hintStyle.Render(")")
}
