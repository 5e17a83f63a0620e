// Package core contains the shared vocabulary of the teambrain framework:
// the message/tool-call content model exchanged with generative models, the
// resolved caller identity, stable identifiers and the error taxonomy used
// across the dispatch loop. Higher-level packages (runner, conversation,
// retrieval, tool) depend on core; core depends on nothing above it.
package core
