// Package functions provides agent tools for managing and running custom
// functions:
//
//   - create_custom_function: Validate and store a new function
//   - update_custom_function: Change fields of an existing function
//   - delete_custom_function: Remove a function
//   - get_custom_function: Show a function's definition
//   - list_custom_functions: List functions, optionally by tag or name pattern
//   - run_custom_function: Execute a function with JSON arguments
//   - validate_custom_function: Check a definition without storing it
//
// Function bodies are JavaScript and should be wrapped in CDATA.
package functions
