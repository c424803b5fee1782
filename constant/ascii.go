package constant

// AsciiArtLogo is the banner printed above the root command help.
const AsciiArtLogo = `
   __ _ _   _ _ __ | | __ _ _   _
  / _' | | | | '_ \| |/ _' | | | |
 | (_| | |_| | |_) | | (_| | |_| |
  \__,_|\__,_| .__/|_|\__,_|\__, |
             |_|            |___/`
