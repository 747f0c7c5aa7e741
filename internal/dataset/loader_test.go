package dataset

import (
	"strings"
	"testing"
)

func TestReadComments(t *testing.T) {
	input := "comment_id,comment_text\n3,first comment\n7,second comment\n"

	comments, err := ReadComments(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadComments() error: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("got %d comments, want 2", len(comments))
	}
	if comments[0].ID != 3 || comments[0].Text != "first comment" {
		t.Errorf("unexpected first comment: %+v", comments[0])
	}
	if comments[1].ID != 7 {
		t.Errorf("unexpected second id: %d", comments[1].ID)
	}
}

func TestReadCommentsTweetColumn(t *testing.T) {
	input := "index,tweet\n0,some tweet text\n"

	comments, err := ReadComments(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadComments() error: %v", err)
	}
	if comments[0].Text != "some tweet text" {
		t.Errorf("tweet column not recognized: %+v", comments[0])
	}
}

func TestReadCommentsPositionalIDs(t *testing.T) {
	input := "text\nfirst\nsecond\nthird\n"

	comments, err := ReadComments(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadComments() error: %v", err)
	}
	for i, c := range comments {
		if c.ID != i {
			t.Errorf("comment %d has id %d, want positional", i, c.ID)
		}
	}
}

func TestReadCommentsNoTextColumn(t *testing.T) {
	input := "index,label\n0,1\n"

	if _, err := ReadComments(strings.NewReader(input)); err == nil {
		t.Error("ReadComments() should fail without a text column")
	}
}

func TestReadCommentsInvalidID(t *testing.T) {
	input := "id,text\nabc,hello\n"

	if _, err := ReadComments(strings.NewReader(input)); err == nil {
		t.Error("ReadComments() should fail on a non-numeric id")
	}
}
