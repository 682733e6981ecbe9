// Package provider defines the adapter abstraction between the gateway's
// canonical shapes and one upstream LLM vendor's wire format.
package provider
