package model

// Genre classifies plays.  Names are unique.
//
// Fields:
//  ID   – primary key identifier.
//  Name – unique genre name (max 63 chars).
type Genre struct {
    ID   uint64 // genres.id
    Name string // genres.name
}

// Actor performs in plays.
type Actor struct {
    ID        uint64 // actors.id
    FirstName string // actors.first_name
    LastName  string // actors.last_name
}

// FullName joins first and last name with a single space.
func (a Actor) FullName() string {
    return a.FirstName + " " + a.LastName
}

// Play is a staged work with a unique title.  ActorIDs and GenreIDs carry the
// many-to-many links on writes; Actors and Genres are populated on reads.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – unique title (max 63 chars).
//  Description – free text.
//  Image       – public path of the uploaded poster (nil when absent).
type Play struct {
    ID          uint64  // plays.id
    Title       string  // plays.title
    Description string  // plays.description
    Image       *string // plays.image (nullable)
    ActorIDs    []uint64
    GenreIDs    []uint64
    Actors      []Actor
    Genres      []Genre
}
