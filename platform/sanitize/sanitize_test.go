package sanitize

import "testing"

func TestText(t *testing.T) {
	cases := map[string]string{
		"plain":                                 "plain",
		"  spaced \n\t out  ":                   "spaced out",
		"<b>bold</b> move":                      "bold move",
		"&lt;script&gt;alert(1)&lt;/script&gt;": "alert(1)",
		"bell\x07 ring":                         "bell ring",
	}
	for in, want := range cases {
		if got := Text(in); got != want {
			t.Errorf("Text(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLabels(t *testing.T) {
	got := Labels([]string{" Villa ", "<i></i>", "APARTMENT-with-a-very-long-suffix"}, 9)
	want := []string{"villa", "apartment"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if Labels(nil, 10) != nil {
		t.Fatal("nil in, nil out")
	}
}
