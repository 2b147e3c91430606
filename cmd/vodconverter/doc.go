// Command vodconverter runs the queue-driven rendition converter and its
// operator tooling.
//
//	vodconverter run                 start the worker
//	vodconverter config init         write a sample configuration
//	vodconverter config validate     load and validate configuration
//	vodconverter jobs [-n N]         list recent jobs from the local ledger
//	vodconverter ladder <height>     show renditions for a source height
//	vodconverter folder <episodeId>  print an episode's storage prefix
//	vodconverter logs [-f] [--job]   show worker log lines
package main
