// Package ciutil detects CI environments and resolves the environment
// variables the test tooling reads, such as the integration database URL.
package ciutil
