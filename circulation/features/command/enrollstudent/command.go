package enrollstudent

import (
	"strings"
	"time"

	"github.com/school-library/librarian/circulation/shared/core"
)

const (
	commandType = "EnrollStudent"
)

// Command represents the intent to enroll a student.
type Command struct {
	StudentID   core.StudentIDString
	StudentName string
	ClassID     core.ClassIDString
	ClassName   string
	OccurredAt  core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command. An empty className defaults to the classID.
func BuildCommand(
	studentID core.StudentIDString,
	studentName string,
	classID core.ClassIDString,
	className string,
	occurredAt time.Time,
) Command {

	classID = strings.TrimSpace(classID)
	className = strings.TrimSpace(className)
	if className == "" {
		className = classID
	}

	return Command{
		StudentID:   strings.TrimSpace(studentID),
		StudentName: strings.TrimSpace(studentName),
		ClassID:     classID,
		ClassName:   className,
		OccurredAt:  core.ToOccurredAt(occurredAt),
	}
}
