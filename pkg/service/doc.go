// Package service implements the business rules of the sanitation registry:
// validation, reference checks, the ownership rule, and derived fields.
//
// Every operation follows the same order: validate all field constraints
// (collecting every violation), resolve referenced foreign ids, apply the
// ownership rule against the already-loaded record, then persist. Services
// return classified errs errors and never touch HTTP.
package service
