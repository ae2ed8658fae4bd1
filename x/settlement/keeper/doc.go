// Package keeper implements the settlement module keeper for metered compute sessions.
//
// Hosts stake native tokens, publish minimum prices and advertise whitelisted
// models. Depositors open sessions that escrow a deposit at an agreed price per
// unit. The host checkpoints proven work with proof digests, and the session
// ends by completion or timeout, at which point the deposit splits into host
// earnings, a protocol fee and a refund.
//
// # Core Functionality
//
// Host Registry: RegisterHost escrows MinHostStake. Active hosts are kept in
// dense indexes (one global, one per model) so listing is O(page) and removal
// is swap-and-pop.
//
// Pricing: every (host, model, asset class) has an explicit minimum price,
// seeded from the host-level price when a model is added. A session for a model
// with no published price is rejected.
//
// Sessions: CreateSession and CreateSessionForPayer escrow the deposit.
// SubmitProof adds units after the digest clears the global replay guard.
// CompleteSession and TriggerTimeout compute the split, credit earnings and
// treasury, mark the session terminal and transfer the refund last.
//
// Slashing: the slashing authority may burn part of a host's stake into the
// treasury, bounded by MaxSlashBps and a cooldown. A host whose stake drops
// below MinStakeAfterSlash is unregistered.
//
// # Execution Model
//
// Every mutating method runs inside execute: a call-scoped reentrancy marker
// plus a branched cache context that is written back only on success. All
// bookkeeping happens before any outbound bank transfer.
//
// # Audit Trail
//
// Each state change emits a settlement_* event and appends a sequenced
// AuditRecord that external indexers read with IterateAuditRecords.
package keeper
