// Package testsupport holds fakes and fixtures shared by package tests.
package testsupport
