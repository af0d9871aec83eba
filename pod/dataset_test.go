package pod_test

import (
	"testing"

	"github.com/jrsteele09/go-pod-app/pod"
	"github.com/stretchr/testify/require"
)

func TestDataset_TurtleRoundTrip(t *testing.T) {
	ds := pod.NewDataset()
	require.NoError(t, ds.AddIRI("https://pod.example/alice/book_index#it", pod.RDFType, pod.SchemaBook))
	require.NoError(t, ds.AddIRI("https://pod.example/alice/book_index#it", "https://schema.org/author", "https://id.example/alice"))

	turtle, err := ds.Turtle()
	require.NoError(t, err)

	parsed, err := pod.ParseTurtle(turtle)
	require.NoError(t, err)
	require.True(t, ds.Equal(parsed))

	var objects []string
	for _, tr := range parsed.Triples() {
		objects = append(objects, tr.Obj.String())
	}
	require.Contains(t, objects, pod.SchemaBook)
}

func TestDataset_TurtleRoundTripAwkwardIRIs(t *testing.T) {
	iris := []string{
		"https://pod.example/a/b.",
		"https://pod.example/a/x(1)",
		"https://pod.example/a/c,d",
		"https://pod.example/a/e;f",
		"https://pod.example/a/#frag.",
	}
	for _, iri := range iris {
		t.Run(iri, func(t *testing.T) {
			ds := pod.NewDataset()
			require.NoError(t, ds.AddIRI(iri, pod.RDFType, pod.SchemaBook))
			require.NoError(t, ds.AddIRI("https://pod.example/a/s", "https://schema.org/about", iri))
			require.NoError(t, ds.AddString(iri, pod.SchemaName, "quoted \"name\"."))

			turtle, err := ds.Turtle()
			require.NoError(t, err)

			parsed, err := pod.ParseTurtle(turtle)
			require.NoError(t, err)
			require.True(t, ds.Equal(parsed))
		})
	}
}

func TestDataset_Equal(t *testing.T) {
	a := pod.NewDataset()
	require.NoError(t, a.AddIRI("https://x.example/s", pod.RDFType, pod.SchemaBook))
	b := pod.NewDataset()
	require.NoError(t, b.AddIRI("https://x.example/s", pod.RDFType, pod.SchemaBook))
	require.NoError(t, b.AddIRI("https://x.example/s", pod.RDFType, pod.SchemaBook))

	require.True(t, a.Equal(b), "duplicates do not change the set of triples")

	require.NoError(t, b.AddIRI("https://x.example/s", pod.RDFType, "https://schema.org/Thing"))
	require.False(t, a.Equal(b))
}

func TestParseTurtle_Empty(t *testing.T) {
	ds, err := pod.ParseTurtle("  \n")
	require.NoError(t, err)
	require.Zero(t, ds.Len())
}

func TestExampleBook(t *testing.T) {
	ds, err := pod.ExampleBook("https://pod.example/alice/book_index")
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	for _, tr := range ds.Triples() {
		require.Equal(t, "https://pod.example/alice/book_index#example_poetry", tr.Subj.String())
	}
}

func TestAddIRI_RejectsInvalidIRI(t *testing.T) {
	ds := pod.NewDataset()
	require.Error(t, ds.AddIRI("not an iri", pod.RDFType, pod.SchemaBook))
}
