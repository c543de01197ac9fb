// Package forge implements a terminal-resident agentic coding assistant:
// an agent loop that drives an LLM over a streaming chat-completions
// protocol, a permission- and hook-gated tool runtime (file I/O, shell,
// web fetch), a background shell manager, an MCP client runtime, and a
// DAG-based workflow engine for multi-step automations.
//
// # Quick start
//
// Install the CLI:
//
//	go install github.com/forgecode/forge/cmd/forge@latest
//
// Run it against an existing project with no config file at all — a
// single default "general" agent type is created automatically:
//
//	export FORGE_API_KEY=sk-...
//	forge chat
//
// Or point it at a forge.yaml describing custom agent types, tool
// policy, and hooks:
//
//	forge --config forge.yaml chat coder
//
// # Using as a Go library
//
// The core is organized as independent packages under the module root:
// agent (the loop and its manager), tool (the runtime and built-in
// tools), shell (background process tracking), permission and hook
// (safety gating), undo (reversible file operations), session
// (conversation persistence), mcpclient (external tool servers), and
// workflow (multi-step orchestration). cmd/forge wires them into the
// forge CLI binary; see that package for the wiring order a new host
// process would need to replicate.
//
// # Configuration
//
// A process reads one YAML document (see the config package) describing
// its LLM endpoint, agent type catalog, tool/permission/hook policy, and
// storage locations. A missing config file is not an error: the process
// falls back to defaults (the OpenRouter endpoint, with the API key taken
// from FORGE_API_KEY).
package forge
