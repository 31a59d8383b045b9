// Package workspace owns the lifecycle of the on-disk policy checkout:
// checkout, policy discovery, creation, validation, staging, commit, and
// removal. Mutating remote operations are gated behind a fresh validator
// pass; nothing here retries or rolls back external-tool state.
package workspace
