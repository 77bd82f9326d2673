package landfuse

// Version is the library release version.
const Version = "1.0.0"
