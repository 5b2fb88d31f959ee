// Package lang executes code blocks embedded in Markdown documents.
//
// A document holds any number of fenced blocks labeled with the dialect
// name (plainmark by default):
//
//	```plainmark
//	let name = "world"
//	print(`hello ${name}`)
//	```
//
// Blocks are extracted in document order and run one after another by an
// [Interpreter]. Every block goes through two stages.
//
// # Rewrite
//
// The block body is tokenized and passed through a structural pass that
// tracks open braces. The result is a [Rewrite]: a sequence of [Line]
// values whose nesting is expressed by depth alone. Its String form is the
// indentation-governed listing that each block result begins with:
//
//	# DEBUG: Converted code:
//	name = "world"
//	print(("hello " + __format(name)))
//
// The rewrite understands let/const/var declarations, assignment with the
// compound operators, if/else if/else, while, for (x of e), for (x in e),
// function declarations and arrow functions, return, break, and continue.
// Braces may be omitted around single-statement bodies. Comments, ":::"
// directive lines, and import lines produce no code.
//
// # Evaluation
//
// The lines are built into a statement tree and walked. Expressions are
// compiled and run by expr-lang against an environment holding:
//
//  1. The capabilities: print, input, open, exec, json, os, vars, error,
//     and console. Their names are reserved.
//  2. Every binding of the interpreter's [Namespace].
//  3. Bindings made by the running block.
//  4. Locals of the running function call.
//
// When a block completes, its block-level bindings are merged into the
// namespace, so later blocks and later calls see them. A failing block
// merges nothing; its result is the output printed before the failure
// followed by the error and a traceback.
//
// Evaluated code has the capabilities of the host process. The exec
// capability passes its argument to a shell verbatim. Only run trusted
// documents.
package lang
