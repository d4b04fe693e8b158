package repository_test

import (
	"context"
	"errors"
	"testing"

	repository "github.com/okian/radrate/internal/adapters/repository"
	"github.com/okian/radrate/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type backend struct {
	name string
	open func(t *testing.T) repository.KV
}

func backends() []backend {
	return []backend{
		{name: "memory", open: func(*testing.T) repository.KV { return repository.NewMemoryKV() }},
		{name: "sqlite", open: func(t *testing.T) repository.KV {
			kv, err := repository.OpenSQLite(context.Background(), t.TempDir(), repository.DefaultSQLiteOptions())
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			return kv
		}},
	}
}

func TestKVStore(t *testing.T) {
	for _, b := range backends() {
		Convey("Given a store on the "+b.name+" backend", t, func() {
			ctx := context.Background()
			kv := b.open(t)
			store := repository.NewKVStore(kv)
			defer func() { _ = store.Close() }()

			Convey("Then an empty store reads as empty", func() {
				So(store.ListUsers(ctx), ShouldBeEmpty)
				So(store.Ratings(ctx, "u1"), ShouldBeEmpty)
				So(store.Reports(ctx), ShouldBeEmpty)
				_, ok := store.CurrentUser(ctx)
				So(ok, ShouldBeFalse)
			})

			Convey("When users are put", func() {
				So(store.PutUser(ctx, model.User{ID: "a", Name: "Ann", Email: "ann@x"}), ShouldBeNil)
				So(store.PutUser(ctx, model.User{ID: "b", Name: "Bo", Email: "bo@x"}), ShouldBeNil)
				So(store.PutUser(ctx, model.User{ID: "a", Name: "Ann Lee", Email: "ann@y"}), ShouldBeNil)

				Convey("Then an existing id is replaced in place", func() {
					So(store.ListUsers(ctx), ShouldResemble, []model.User{
						{ID: "a", Name: "Ann Lee", Email: "ann@y"},
						{ID: "b", Name: "Bo", Email: "bo@x"},
					})
				})

				Convey("And the raw value lives under the users key", func() {
					raw, ok, err := kv.Get(ctx, "radiologist-users")
					So(err, ShouldBeNil)
					So(ok, ShouldBeTrue)
					So(raw, ShouldStartWith, `[{"id":"a"`)
				})
			})

			Convey("When a current user is set and cleared", func() {
				u := model.User{ID: "a", Name: "Ann", Email: "ann@x"}
				So(store.SetCurrentUser(ctx, &u), ShouldBeNil)
				got, ok := store.CurrentUser(ctx)
				So(ok, ShouldBeTrue)
				So(got, ShouldResemble, u)

				So(store.SetCurrentUser(ctx, nil), ShouldBeNil)
				_, ok = store.CurrentUser(ctx)
				So(ok, ShouldBeFalse)
			})

			Convey("When ratings are put for two users", func() {
				r1 := []model.ImageRating{{Idx: 7, ImagePath: "a.png", ModelRatings: []model.ModelRating{
					{ModelIndex: 0, Scores: model.DefaultScores()},
				}}}
				r2 := []model.ImageRating{{Idx: 8, ImagePath: "b.png", ModelRatings: []model.ModelRating{}}}
				So(store.PutRatings(ctx, "u1", r1), ShouldBeNil)
				So(store.PutRatings(ctx, "u2", r2), ShouldBeNil)

				Convey("Then each user reads back only their own", func() {
					So(store.Ratings(ctx, "u1"), ShouldResemble, r1)
					So(store.Ratings(ctx, "u2"), ShouldResemble, r2)
				})

				Convey("And a second put replaces instead of merging", func() {
					So(store.PutRatings(ctx, "u1", r2), ShouldBeNil)
					So(store.Ratings(ctx, "u1"), ShouldResemble, r2)
				})
			})

			Convey("When the ratings key holds invalid JSON", func() {
				So(kv.Set(ctx, "radiologist-ratings-u1", "{not json"), ShouldBeNil)
				So(kv.Set(ctx, "radiologist-users", "[{"), ShouldBeNil)
				So(kv.Set(ctx, "current-user", `"nobody"`), ShouldBeNil)

				Convey("Then reads degrade to empty instead of failing", func() {
					So(store.Ratings(ctx, "u1"), ShouldResemble, []model.ImageRating{})
					So(store.ListUsers(ctx), ShouldResemble, []model.User{})
					_, ok := store.CurrentUser(ctx)
					So(ok, ShouldBeFalse)
				})

				Convey("And a later write repairs the key", func() {
					So(store.PutUser(ctx, model.User{ID: "c"}), ShouldBeNil)
					So(len(store.ListUsers(ctx)), ShouldEqual, 1)
				})
			})

			Convey("When everything is reset", func() {
				u := model.User{ID: "a"}
				So(store.PutUser(ctx, u), ShouldBeNil)
				So(store.SetCurrentUser(ctx, &u), ShouldBeNil)
				So(store.PutRatings(ctx, "a", []model.ImageRating{{Idx: 1}}), ShouldBeNil)
				So(store.PutReports(ctx, []model.Report{{Idx: 1, ImagePath: "a.png"}}), ShouldBeNil)

				So(store.ResetAll(ctx), ShouldBeNil)

				Convey("Then no key survives", func() {
					keys, err := kv.Keys(ctx)
					So(err, ShouldBeNil)
					So(keys, ShouldBeEmpty)
					So(store.ListUsers(ctx), ShouldBeEmpty)
					So(store.Reports(ctx), ShouldBeEmpty)
				})
			})
		})
	}
}

type failingKV struct {
	repository.KV
}

func (failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("io error")
}

func (failingKV) Set(context.Context, string, string) error {
	return errors.New("disk full")
}

func TestKVStoreBackendFailures(t *testing.T) {
	Convey("Given a backend whose reads and writes fail", t, func() {
		ctx := context.Background()
		store := repository.NewKVStore(failingKV{KV: repository.NewMemoryKV()})

		Convey("Then reads degrade to empty", func() {
			So(store.Ratings(ctx, "u1"), ShouldBeEmpty)
			So(store.ListUsers(ctx), ShouldBeEmpty)
		})

		Convey("And writes report the failure", func() {
			err := store.PutRatings(ctx, "u1", nil)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "disk full")
		})
	})
}

func TestSQLitePersistence(t *testing.T) {
	Convey("Given a SQLite store that is closed and reopened", t, func() {
		ctx := context.Background()
		dir := t.TempDir()

		kv, err := repository.OpenSQLite(ctx, dir, repository.DefaultSQLiteOptions())
		So(err, ShouldBeNil)
		store := repository.NewKVStore(kv)
		So(store.PutUser(ctx, model.User{ID: "a", Name: "Ann"}), ShouldBeNil)
		So(store.Close(), ShouldBeNil)

		kv, err = repository.OpenSQLite(ctx, dir, repository.SQLiteOptions{})
		So(err, ShouldBeNil)
		store = repository.NewKVStore(kv)
		defer func() { _ = store.Close() }()

		Convey("Then the data is still there", func() {
			So(store.ListUsers(ctx), ShouldResemble, []model.User{{ID: "a", Name: "Ann"}})
		})
	})

	Convey("Given a directory without a database and creation disabled", t, func() {
		_, err := repository.OpenSQLite(context.Background(), t.TempDir(), repository.SQLiteOptions{})

		Convey("Then opening fails", func() {
			So(errors.Is(err, repository.ErrOpenStorage), ShouldBeTrue)
		})
	})
}

func TestMemoryKVClosed(t *testing.T) {
	Convey("Given a closed memory backend", t, func() {
		kv := repository.NewMemoryKV()
		So(kv.Close(), ShouldBeNil)

		Convey("Then operations report it", func() {
			So(errors.Is(kv.Set(context.Background(), "k", "v"), repository.ErrClosed), ShouldBeTrue)
		})
	})
}
