// Package vm implements the compile-time evaluator.
//
// This package contains:
//   - tagged Value representation (void, bool, int, real, ref, ptr)
//   - Environment frames with lexical parent chains
//   - Procedure arena with generation-checked method lookup
//   - Primitive operations dispatched on resolved types
//   - The recursive node interpreter and its internal-error taxonomy
package vm
