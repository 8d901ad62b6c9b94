package llm

import "testing"

func TestExtractFencedBlock(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{
			name:   "single block",
			text:   "Here is the patch:\n```\n+added line\n```\n",
			want:   "+added line\n",
			wantOK: true,
		},
		{
			name:   "info string on opening fence",
			text:   "```diff\n-old\n+new\n```",
			want:   "-old\n+new\n",
			wantOK: true,
		},
		{
			name:   "last block wins",
			text:   "```\nfirst\n```\nsome prose\n```\nsecond\n```\n",
			want:   "second\n",
			wantOK: true,
		},
		{
			name:   "tilde fences",
			text:   "~~~\ncontent\n~~~\n",
			want:   "content\n",
			wantOK: true,
		},
		{
			name:   "longer closing fence",
			text:   "```\nbody\n`````\n",
			want:   "body\n",
			wantOK: true,
		},
		{
			name:   "shorter run does not close",
			text:   "````\n```\nstill inside\n````\n",
			want:   "```\nstill inside\n",
			wantOK: true,
		},
		{
			name:   "unterminated block ignored",
			text:   "```\ncomplete\n```\n```\ndangling",
			want:   "complete\n",
			wantOK: true,
		},
		{
			name:   "multi-line block keeps interior blank lines",
			text:   "```\nline one\n\nline three\n```",
			want:   "line one\n\nline three\n",
			wantOK: true,
		},
		{
			name:   "no block",
			text:   "plain prose without fences",
			wantOK: false,
		},
		{
			name:   "only an unterminated block",
			text:   "```diff\n+never closed",
			wantOK: false,
		},
		{
			name:   "empty input",
			text:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractFencedBlock(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ExtractFencedBlock() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ExtractFencedBlock() = %q, want %q", got, tt.want)
			}
		})
	}
}
