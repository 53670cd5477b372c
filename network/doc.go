// Package network serves the engine over HTTP. Routes live under /v1 and
// carry JSON; proofs travel as the hex encoding of their 256-byte binary
// form or as snarkjs proof objects, public signals as decimal strings.
//
// Every response carries an X-Request-ID header. Engine errors map to HTTP
// statuses by kind: state conflicts are 409 (404 for unknown sessions),
// authorization failures 403 (401 for a missing admin token) and
// commitment, betting, proof and deck errors 422.
//
// Verification keys are uploaded with PUT /v1/keys/:circuit and need the
// admin token as a bearer credential. Servers started without a token refuse
// every upload.
package network
