// Package scenario implements the scenario engine: lifecycle (create,
// update, clone, lock, purge), per-scenario data mutation under the
// copy-on-write dataset policy, group membership, scenario comparison
// and cross-network value mapping. Each operation is one storage
// transaction.
package scenario
