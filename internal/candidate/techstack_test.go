package candidate

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/spigell/talentscout/internal/knowledge"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()

	base, err := knowledge.Default()
	if err != nil {
		t.Fatalf("loading knowledge: %v", err)
	}
	return NewParser(base.Taxonomy)
}

func TestParseGroupsByCategory(t *testing.T) {
	p := newTestParser(t)

	got := p.Parse("Python, Django, PostgreSQL")
	want := TechStack{
		{Name: "languages", Technologies: []string{"Python"}},
		{Name: "frameworks", Technologies: []string{"Django"}},
		{Name: "databases", Technologies: []string{"Postgresql"}},
	}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected stack:\n got  %+v\n want %+v", got, want)
	}
}

func TestParseWordBoundaries(t *testing.T) {
	p := newTestParser(t)

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "java inside javascript", input: "I write JavaScript daily", want: []string{"Javascript"}},
		{name: "java and javascript", input: "javascript and java", want: []string{"Javascript", "Java"}},
		{name: "react native wins over react", input: "React Native apps", want: []string{"React Native"}},
		{name: "c++ and c#", input: "C++, C# and some C", want: []string{"C++", "C#", "C"}},
		{name: "duplicates", input: "python PYTHON Python", want: []string{"Python"}},
		{name: "spring boot", input: "Spring Boot services", want: []string{"Spring Boot"}},
		{name: "nothing", input: "I like turtles", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse(tt.input).Technologies()
			if len(tt.want) == 0 && len(got) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParseDuplicateMembershipUsesFirstCategory(t *testing.T) {
	p := newTestParser(t)

	stack := p.Parse("prometheus")
	if got := stack.Get("databases"); len(got) != 1 {
		t.Fatalf("expected prometheus under databases, got %+v", stack)
	}
	if got := stack.Get("devops_tools"); len(got) != 0 {
		t.Fatalf("expected devops_tools to be absent, got %+v", got)
	}
}

func TestParseIsIdempotent(t *testing.T) {
	p := newTestParser(t)

	inputs := []string{
		"Python, Django, PostgreSQL",
		"I build React and Node.js apps on AWS with Docker, Kubernetes and nginx",
		"C#, asp.net, SQL Server, Azure DevOps, RabbitMQ",
		"Go, gRPC, Redis, Apache Kafka and GitHub Actions",
	}

	for _, input := range inputs {
		first := p.Parse(input)
		second := p.Parse(first.String())
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("parse not idempotent for %q:\n first  %+v\n second %+v", input, first, second)
		}
	}
}

func TestTechStackMarshalKeepsOrder(t *testing.T) {
	t.Parallel()

	stack := TechStack{
		{Name: "languages", Technologies: []string{"Python"}},
		{Name: "frameworks", Technologies: []string{"Django", "React"}},
	}

	data, err := json.Marshal(stack)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"languages":["Python"],"frameworks":["Django","React"]}`
	if string(data) != want {
		t.Fatalf("expected %s, got %s", want, data)
	}
}

func TestTechStackDescribe(t *testing.T) {
	t.Parallel()

	stack := TechStack{
		{Name: "languages", Technologies: []string{"Python"}},
		{Name: "devops_tools", Technologies: []string{"Docker"}},
	}

	want := "Languages: Python\nDevops Tools: Docker"
	if got := stack.Describe(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
