package pond

// Version is the released version of the pond tool and library.
const Version = "0.1.0"
