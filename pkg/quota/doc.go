// Package quota enforces the daily free-tier allowance for AI requests.
//
// Paid users with active access bypass the counter entirely. Free users get a
// fixed number of requests per calendar day (UTC). Consumption is a single
// conditional increment in the store: the counter only advances while it still
// belongs to the current day, so two concurrent requests can never both take
// the last slot, and a stale counter from a previous day is reset before
// counting resumes.
package quota
