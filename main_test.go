package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"school-registry-go/config"
	"school-registry-go/db"
	"school-registry-go/models"
)

func exampleSnapshot() models.Snapshot {
	school := models.NewSchool(4, "Lake School")
	school.AddSubject(models.NewSubject(school.NextSubjectID(), "Maths"))
	class := models.NewClass(school.NextClassID(), "1A", "First year")
	class.AddSubjects(1)
	school.AddClass(class)
	return school.Snapshot()
}

func TestWriteSnapshotJSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	snap := exampleSnapshot()

	jsonPath := filepath.Join(dir, "school.json")
	require.NoError(t, writeSnapshot(jsonPath, snap))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var fromJSON models.School
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	require.Equal(t, "Lake School", fromJSON.Name())
	require.Equal(t, models.ClassID(2), fromJSON.PeekNextClassID())

	yamlPath := filepath.Join(dir, "school.yml")
	require.NoError(t, writeSnapshot(yamlPath, snap))
	data, err = os.ReadFile(yamlPath)
	require.NoError(t, err)
	var fromYAML models.Snapshot
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	require.Equal(t, []models.SubjectID{1}, fromYAML.Classes[0].SubjectIDs())
}

func TestWriteSnapshotXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "school.xlsx")
	require.NoError(t, writeSnapshot(path, exampleSnapshot()))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Positive(t, info.Size())
}

func TestWriteSnapshotUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "school.csv")
	require.Error(t, writeSnapshot(path, exampleSnapshot()))
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &app{
		cfg:   config.Config{School: config.SchoolConfig{ID: 5, Name: "Fresh School"}},
		log:   slog.Default(),
		redis: client,
		store: db.NewRedisStore(client, nil),
	}
}

func TestLoadSnapshotDoesNotCreateSchool(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	snap, err := a.loadSnapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, models.SchoolID(5), snap.ID)
	require.Equal(t, "Fresh School", snap.Name)
	require.Empty(t, snap.Teachers)

	exists, err := a.store.Exists(ctx, 5)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestLoadSnapshotReadsStoredSchool(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	svc, err := a.openService(ctx)
	require.NoError(t, err)
	_, err = svc.CreateSubject(ctx, "Maths")
	require.NoError(t, err)

	snap, err := a.loadSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Subjects, 1)
}
