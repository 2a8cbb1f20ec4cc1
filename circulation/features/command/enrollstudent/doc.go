// Package enrollstudent implements the Enroll Student use case: registering a student, as a
// member of a class, with the library. Enrollment is immutable.
package enrollstudent
