package service

import "github.com/blogicum/blogicum/internal/data"

// LastPage asks for the final page of a listing.
const LastPage = -1

// PostPage is one page of a post listing.
type PostPage struct {
	Posts      []*data.Post
	Number     int
	TotalPages int
	TotalItems int
}

// HasPrevious reports whether a page precedes this one.
func (p *PostPage) HasPrevious() bool { return p.Number > 1 }

// HasNext reports whether a page follows this one.
func (p *PostPage) HasNext() bool { return p.Number < p.TotalPages }

// PreviousNumber is the number of the preceding page.
func (p *PostPage) PreviousNumber() int { return p.Number - 1 }

// NextNumber is the number of the following page.
func (p *PostPage) NextNumber() int { return p.Number + 1 }

// paginate resolves a requested page number against total items. An empty
// listing still has page 1; any other out-of-range page is ErrNotFound.
func paginate(total, number, size int) (resolved, pages, offset int, err error) {
	pages = (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if number == LastPage {
		number = pages
	}
	if number < 1 || number > pages {
		return 0, 0, 0, ErrNotFound
	}
	return number, pages, (number - 1) * size, nil
}
