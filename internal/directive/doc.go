// Package directive resolves named export directives.
//
// A directive names the task an export bundle asks an assistant to perform:
// DUMP reworks the staged prose, CRITIQUE finds its gaps, GENERATE expands
// it. The built-in set is embedded as CUE and compiled at registry
// construction; LoadDir overlays user-defined directives from .cue files,
// validated against the same #Directive schema, with position-bearing
// errors for malformed definitions. User definitions override built-ins of
// the same name.
package directive
