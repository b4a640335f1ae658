// Package ai generates tailored CV content through the OpenAI chat API.
//
// The optimizer rewrites a candidate's CV sections against a target job
// description. The OpenAI client is injected through a narrow interface so
// handlers and tests never depend on the SDK directly, and no package-level
// client or API key exists: configuration is passed in at construction.
package ai
