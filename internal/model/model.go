package model

// ContainerID names a scope within which ranks are unique.
// RootContainer is the course's chapter list; any other value is the id of the
// chapter that owns the lessons.
type ContainerID string

const RootContainer ContainerID = ""

func (c ContainerID) IsRoot() bool { return c == RootContainer }

func (c ContainerID) String() string {
	if c.IsRoot() {
		return "root"
	}
	return string(c)
}

type Course struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}

type Lesson struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	Rank  int    `json:"rank" yaml:"rank"`
}

type Chapter struct {
	ID      string   `json:"id" yaml:"id"`
	Title   string   `json:"title" yaml:"title"`
	Rank    int      `json:"rank" yaml:"rank"`
	Lessons []Lesson `json:"lessons" yaml:"lessons"`

	// Expanded is editor-only state. It is never sent to or derived from the server.
	Expanded bool `json:"-" yaml:"-"`
}

// Clone returns a deep copy of c.
func (c Chapter) Clone() Chapter {
	out := c
	out.Lessons = append([]Lesson(nil), c.Lessons...)
	return out
}

// Entry is the container-agnostic shape of a ranked element (a chapter header or a lesson).
type Entry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Rank  int    `json:"rank"`
}

func LessonEntries(lessons []Lesson) []Entry {
	out := make([]Entry, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, Entry{ID: l.ID, Title: l.Title, Rank: l.Rank})
	}
	return out
}

func EntryLessons(entries []Entry) []Lesson {
	out := make([]Lesson, 0, len(entries))
	for _, e := range entries {
		out = append(out, Lesson{ID: e.ID, Title: e.Title, Rank: e.Rank})
	}
	return out
}

// DragEvent describes a completed drag gesture.
// OverID is empty when the gesture ended without a drop target.
type DragEvent struct {
	ActiveID        string      `json:"activeId"`
	OverID          string      `json:"overId"`
	ActiveContainer ContainerID `json:"activeContainerId"`
	OverContainer   ContainerID `json:"overContainerId"`
}

// CourseHierarchy is the server read shape: chapters with their lessons, ordered by position.
type CourseHierarchy struct {
	CourseID string          `json:"courseId" yaml:"courseId"`
	Title    string          `json:"title" yaml:"title"`
	Chapters []ChapterRecord `json:"chapters" yaml:"chapters"`
}

type ChapterRecord struct {
	ID       string         `json:"id" yaml:"id"`
	Title    string         `json:"title" yaml:"title"`
	Position int            `json:"position" yaml:"position"`
	Lessons  []LessonRecord `json:"lessons" yaml:"lessons"`
}

type LessonRecord struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Position int    `json:"position" yaml:"position"`
}

// RankUpdate assigns a new position to one element of a container.
type RankUpdate struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}

type ResponseStatus string

const (
	StatusSuccess ResponseStatus = "success"
	StatusError   ResponseStatus = "error"
)

// Response is the reply to a bulk reorder write.
type Response struct {
	Status  ResponseStatus `json:"status"`
	Message string         `json:"message"`
}

func (r Response) OK() bool { return r.Status == StatusSuccess }

const (
	EventSnapshot = "course.snapshot"
	EventChanged  = "course.changed"
)

// ChangeEvent is pushed on a course's change feed. Version increases with every
// write to the course.
type ChangeEvent struct {
	Type     string `json:"type"`
	CourseID string `json:"courseId"`
	Version  int64  `json:"version"`
}
