// Package ytdlp resolves and downloads remote video audio with yt-dlp.
package ytdlp
