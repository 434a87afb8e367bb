package validate

// keywords are JavaScript keywords and future reserved words. They are never
// valid function or parameter names.
var keywords = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true,
	"do": true, "else": true, "export": true, "extends": true, "finally": true,
	"for": true, "function": true, "if": true, "import": true, "in": true,
	"instanceof": true, "new": true, "return": true, "super": true,
	"switch": true, "this": true, "throw": true, "try": true, "typeof": true,
	"var": true, "void": true, "while": true, "with": true, "yield": true,
	"let": true, "static": true, "enum": true, "await": true, "async": true,
	"implements": true, "interface": true, "package": true, "private": true,
	"protected": true, "public": true, "null": true, "true": true,
	"false": true, "arguments": true, "eval": true,
}

// protectedGlobals may not be used as function names because the function
// would shadow or impersonate them.
var protectedGlobals = map[string]bool{
	"undefined": true, "NaN": true, "Infinity": true, "globalThis": true,
	"window": true, "global": true, "self": true, "process": true,
	"require": true, "module": true, "exports": true, "Function": true,
	"Object": true, "Array": true, "String": true, "Number": true,
	"Boolean": true, "Symbol": true, "Math": true, "JSON": true, "Date": true,
	"RegExp": true, "Error": true, "Promise": true, "Reflect": true,
	"Proxy": true, "Map": true, "Set": true, "WeakMap": true, "WeakSet": true,
	"setTimeout": true, "setInterval": true, "constructor": true,
	"prototype": true, "__proto__": true,
}

// IsReserved reports whether name is a keyword or a protected global.
func IsReserved(name string) bool {
	return keywords[name] || protectedGlobals[name]
}
