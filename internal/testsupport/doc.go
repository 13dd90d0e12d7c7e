// Package testsupport builds throwaway configs and socket paths for tests.
package testsupport
