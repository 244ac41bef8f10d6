package processor

import "testing"

func TestIsEligible(t *testing.T) {
	cases := map[string]bool{
		"photo.png":            true,
		"photo.jpg":            true,
		"photo.jpeg":           true,
		"anim.gif":             true,
		"scan.bmp":             true,
		"PHOTO.PNG":            true,
		"Holiday.JpEg":         true,
		"albums/2024/cat.jpg":  true,
		"thumbnail_photo.png":  true, // derived keys are not excluded
		"notes.txt":            false,
		"photo.webp":           false,
		"photo.tiff":           false,
		"photo.png.txt":        false,
		"png":                  false,
		"":                     false,
		"archive.jpg.zip":      false,
		"image.jpeg ":          false,
		"albums/2024/":         false,
		"videos/clip.mp4":      false,
		"documents/report.pdf": false,
	}
	for key, want := range cases {
		if got := IsEligible(key); got != want {
			t.Errorf("IsEligible(%q)=%v; want %v", key, got, want)
		}
	}
}
