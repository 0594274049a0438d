package stats

import "github.com/alecthomas/chroma/v2/lexers"

// Language names the programming or markup language of a file from its name,
// using the chroma lexer registry. Unknown files report OtherCategory.
func Language(name string) string {
	lexer := lexers.Match(name)
	if lexer == nil {
		return OtherCategory
	}
	return lexer.Config().Name
}
