package roster

import (
	"fmt"
	"slices"
	"strings"

	"github.com/school-library/librarian/circulation/shared/core"
)

// Student is an enrolled student.
type Student struct {
	ID        core.StudentIDString
	Name      string
	ClassID   core.ClassIDString
	ClassName string
}

// Class is an enrollment group with at least one student.
type Class struct {
	ID   core.ClassIDString
	Name string
}

// Directory is not safe for concurrent use.
type Directory struct {
	order    []core.StudentIDString
	students map[core.StudentIDString]Student
	classes  map[core.ClassIDString]Class
}

func NewDirectory() *Directory {
	return &Directory{
		students: make(map[core.StudentIDString]Student),
		classes:  make(map[core.ClassIDString]Class),
	}
}

// Enroll adds a student. The first student of a class names the class.
func (d *Directory) Enroll(student Student) error {
	if _, exists := d.students[student.ID]; exists {
		return fmt.Errorf("%w: student %s", core.ErrStudentAlreadyEnrolled, student.ID)
	}

	d.students[student.ID] = student
	d.order = append(d.order, student.ID)

	if _, exists := d.classes[student.ClassID]; !exists {
		d.classes[student.ClassID] = Class{ID: student.ClassID, Name: student.ClassName}
	}

	return nil
}

func (d *Directory) GetStudent(id core.StudentIDString) (Student, error) {
	student, exists := d.students[id]
	if !exists {
		return Student{}, fmt.Errorf("%w: student %s", core.ErrStudentNotFound, id)
	}

	return student, nil
}

// ListStudents returns all students in enrollment order.
func (d *Directory) ListStudents() []Student {
	students := make([]Student, 0, len(d.order))
	for _, id := range d.order {
		students = append(students, d.students[id])
	}

	return students
}

// ListStudentsInClass returns the students of the class in enrollment order.
func (d *Directory) ListStudentsInClass(classID core.ClassIDString) []Student {
	students := make([]Student, 0)
	for _, id := range d.order {
		if d.students[id].ClassID == classID {
			students = append(students, d.students[id])
		}
	}

	return students
}

func (d *Directory) GetClass(classID core.ClassIDString) (Class, error) {
	class, exists := d.classes[classID]
	if !exists {
		return Class{}, fmt.Errorf("%w: class %s", core.ErrClassNotFound, classID)
	}

	return class, nil
}

// ListClasses returns all classes sorted by id.
func (d *Directory) ListClasses() []Class {
	classes := make([]Class, 0, len(d.classes))
	for _, class := range d.classes {
		classes = append(classes, class)
	}

	slices.SortFunc(classes, func(a, b Class) int {
		return strings.Compare(a.ID, b.ID)
	})

	return classes
}
