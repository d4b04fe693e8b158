package imagepath_test

import (
	"testing"

	"github.com/okian/radrate/internal/domain/imagepath"
	. "github.com/smartystreets/goconvey/convey"
)

func TestValid(t *testing.T) {
	Convey("Given candidate image paths", t, func() {
		Convey("Then absolute URLs are accepted regardless of extension", func() {
			So(imagepath.Valid("https://cdn.example.org/xray/001"), ShouldBeTrue)
			So(imagepath.Valid("s3://bucket/scan.dcm"), ShouldBeTrue)
		})

		Convey("And relative paths with an image extension are accepted", func() {
			for _, p := range []string{"a.png", "chest/001.JPG", "dir\\x.jpeg", "./p-1.webp", "x.GIF"} {
				So(imagepath.Valid(p), ShouldBeTrue)
			}
		})

		Convey("And other paths are rejected", func() {
			for _, p := range []string{"", "notes.txt", "scan.png.bak", "has space.png", "img"} {
				So(imagepath.Valid(p), ShouldBeFalse)
			}
		})

		Convey("And web URLs without a host are rejected", func() {
			for _, p := range []string{"http://", "https:///a.png", "HTTP://"} {
				So(imagepath.IsURL(p), ShouldBeFalse)
				So(imagepath.Valid(p), ShouldBeFalse)
			}
			So(imagepath.IsURL("file:///srv/a.png"), ShouldBeTrue)
		})
	})
}

func TestResolve(t *testing.T) {
	Convey("Given an images base", t, func() {
		Convey("Then URLs pass through", func() {
			So(imagepath.Resolve("https://x.org/a.png", "/images/"), ShouldEqual, "https://x.org/a.png")
		})

		Convey("And relative paths are joined onto the base", func() {
			So(imagepath.Resolve("chest/001.png", "/images/"), ShouldEqual, "/images/chest/001.png")
			So(imagepath.Resolve("/001.png", "/images"), ShouldEqual, "/images/001.png")
			So(imagepath.Resolve("001.png", "http://host:8080/static/"), ShouldEqual, "http://host:8080/static/001.png")
			So(imagepath.Resolve("a.png", ""), ShouldEqual, "/images/a.png")
		})

		Convey("And an empty path has no URL", func() {
			So(imagepath.Resolve("", "/images/"), ShouldEqual, "")
		})
	})
}
