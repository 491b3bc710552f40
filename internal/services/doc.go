// Package services wraps the upstream YouTube Data API behind the narrow
// [Source] contract and routes every call through the retrying [Executor],
// which injects credentials from the token provider before each attempt.
package services
