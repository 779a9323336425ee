// Package auth implements the credential and authorization primitives:
// JWT issuance and verification, password hashing, and the ownership rule
// that gates self-service mutation of owned records.
package auth
