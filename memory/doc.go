// Package memory implements the gated long-term memory behind the decision
// pipeline: what may be written (policy), what must never be written
// (contract violations), and how records persist, reinforce, and expire.
//
// Three record families are kept, each with its own TTL:
//   - UserTrait: stable facts about a user (90 days)
//   - TopicPattern: durable observations about a technology (180 days)
//   - DecisionRecord: past verdicts, idempotent per (topic, reasoning) (7 days)
//
// Architecture:
//   - Store: persistence backend (local embedded store, or Redis for production)
//   - Embedder: text-to-vector conversion (mock for tests, ONNX locally,
//     API-based in production)
//   - Manager: orchestrates policy checks, extraction, reinforcement, and
//     bounded context assembly
//
// Memory is advisory. Every read path degrades to an empty context rather
// than failing the caller, and retrieved memories are rendered with an
// explicit lower-priority-than-live-evidence label.
package memory
