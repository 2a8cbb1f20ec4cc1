// Package roster is the in-process student directory: enrolled students and the classes they belong to.
package roster
