package handler

import (
	"time"

	"github.com/iliyamo/theatre-booking/internal/model"
)

// view selects the response shape of a resource.  Every handler names the
// shape it renders instead of deriving it from the route.
type view int

const (
	viewList view = iota
	viewDetail
)

type genreView struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

func newGenreView(g model.Genre) genreView { return genreView{ID: g.ID, Name: g.Name} }

type actorView struct {
	ID        uint64 `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
}

func newActorView(a model.Actor) actorView {
	return actorView{ID: a.ID, FirstName: a.FirstName, LastName: a.LastName, FullName: a.FullName()}
}

// playListView names actors and genres; playDetailView nests them.
type playListView struct {
	ID          uint64   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Actors      []string `json:"actors"`
	Genres      []string `json:"genres"`
	Image       *string  `json:"image"`
}

type playDetailView struct {
	ID          uint64      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Actors      []actorView `json:"actors"`
	Genres      []genreView `json:"genres"`
	Image       *string     `json:"image"`
}

type playImageView struct {
	ID    uint64  `json:"id"`
	Image *string `json:"image"`
}

func renderPlay(p model.Play, v view) any {
	if v == viewDetail {
		out := playDetailView{
			ID: p.ID, Title: p.Title, Description: p.Description, Image: p.Image,
			Actors: make([]actorView, 0, len(p.Actors)),
			Genres: make([]genreView, 0, len(p.Genres)),
		}
		for _, a := range p.Actors {
			out.Actors = append(out.Actors, newActorView(a))
		}
		for _, g := range p.Genres {
			out.Genres = append(out.Genres, newGenreView(g))
		}
		return out
	}
	out := playListView{
		ID: p.ID, Title: p.Title, Description: p.Description, Image: p.Image,
		Actors: make([]string, 0, len(p.Actors)),
		Genres: make([]string, 0, len(p.Genres)),
	}
	for _, a := range p.Actors {
		out.Actors = append(out.Actors, a.FullName())
	}
	for _, g := range p.Genres {
		out.Genres = append(out.Genres, g.Name)
	}
	return out
}

type hallView struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	Rows       int    `json:"rows"`
	SeatsInRow int    `json:"seats_in_row"`
	NumOfSeats int    `json:"num_of_seats"`
}

func newHallView(h model.TheatreHall) hallView {
	return hallView{ID: h.ID, Name: h.Name, Rows: h.Rows, SeatsInRow: h.SeatsInRow, NumOfSeats: h.Capacity()}
}

// performanceListView flattens play and hall to their names.
type performanceListView struct {
	ID               uint64    `json:"id"`
	ShowTime         time.Time `json:"show_time"`
	Play             string    `json:"play"`
	TheatreHall      string    `json:"theatre_hall"`
	NumOfSeats       int       `json:"num_of_seats"`
	TicketsAvailable int       `json:"tickets_available"`
}

func newPerformanceListView(p model.PerformanceSummary) performanceListView {
	return performanceListView{
		ID:               p.ID,
		ShowTime:         p.ShowTime.UTC(),
		Play:             p.PlayTitle,
		TheatreHall:      p.Hall.Name,
		NumOfSeats:       p.Hall.Capacity(),
		TicketsAvailable: p.TicketsAvailable(),
	}
}

type performanceDetailView struct {
	ID          uint64         `json:"id"`
	ShowTime    time.Time      `json:"show_time"`
	Play        playDetailView `json:"play"`
	TheatreHall hallView       `json:"theatre_hall"`
	Tickets     []ticketView   `json:"tickets"`
}

// performanceView is the write response: references by id.
type performanceView struct {
	ID          uint64    `json:"id"`
	ShowTime    time.Time `json:"show_time"`
	Play        uint64    `json:"play"`
	TheatreHall uint64    `json:"theatre_hall"`
}

func newPerformanceView(p model.Performance) performanceView {
	return performanceView{ID: p.ID, ShowTime: p.ShowTime.UTC(), Play: p.PlayID, TheatreHall: p.TheatreHallID}
}

// ticketView references its performance by id.
type ticketView struct {
	ID          uint64 `json:"id"`
	Row         int    `json:"row"`
	Seat        int    `json:"seat"`
	Performance uint64 `json:"performance"`
}

func newTicketView(t model.Ticket) ticketView {
	return ticketView{ID: t.ID, Row: t.Row, Seat: t.Seat, Performance: t.PerformanceID}
}

// ticketListView embeds the performance list view.
type ticketListView struct {
	ID          uint64              `json:"id"`
	Row         int                 `json:"row"`
	Seat        int                 `json:"seat"`
	Performance performanceListView `json:"performance"`
}

func newTicketListView(t model.Ticket, perf map[uint64]model.PerformanceSummary) ticketListView {
	return ticketListView{ID: t.ID, Row: t.Row, Seat: t.Seat, Performance: newPerformanceListView(perf[t.PerformanceID])}
}

type reservationView struct {
	ID        uint64    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Tickets   any       `json:"tickets"`
}

// renderReservation uses plain tickets for viewList and embedded
// performances for viewDetail; perf is only read for viewDetail.
func renderReservation(r model.Reservation, v view, perf map[uint64]model.PerformanceSummary) reservationView {
	out := reservationView{ID: r.ID, CreatedAt: r.CreatedAt.UTC()}
	if v == viewDetail {
		tickets := make([]ticketListView, 0, len(r.Tickets))
		for _, t := range r.Tickets {
			tickets = append(tickets, newTicketListView(t, perf))
		}
		out.Tickets = tickets
		return out
	}
	tickets := make([]ticketView, 0, len(r.Tickets))
	for _, t := range r.Tickets {
		tickets = append(tickets, newTicketView(t))
	}
	out.Tickets = tickets
	return out
}
